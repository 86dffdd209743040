package main

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"redline/internal/store"
)

func newWorkflowsCommand(cmdCtx *commandContext) *cobra.Command {
	workflowsCmd := &cobra.Command{
		Use:   "workflows",
		Short: "Inspect configured review workflows",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWorkflowsList(cmd, cmdCtx)
		},
	}
	workflowsCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List workflows with their stages and assigned content types",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWorkflowsList(cmd, cmdCtx)
		},
	})
	return workflowsCmd
}

type workflowRow struct {
	workflow *store.Workflow
	stages   []string
	records  int
}

func runWorkflowsList(cmd *cobra.Command, cmdCtx *commandContext) error {
	cfg, err := cmdCtx.ensureConfig()
	if err != nil {
		return err
	}
	st, err := store.Open(cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	ctx := cmd.Context()
	workflows, err := st.Workflows(ctx)
	if err != nil {
		return err
	}
	if len(workflows) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No workflows configured.")
		return nil
	}

	rows := make([]workflowRow, len(workflows))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(4)
	for i, workflow := range workflows {
		group.Go(func() error {
			row, err := collectWorkflowRow(groupCtx, st, workflow)
			if err != nil {
				return err
			}
			rows[i] = row
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return err
	}

	headers := []string{"ID", "Name", "Stages", "Content Types", "Records"}
	tableRows := make([][]string, 0, len(rows))
	for _, row := range rows {
		tableRows = append(tableRows, []string{
			strconv.FormatInt(row.workflow.ID, 10),
			row.workflow.Name,
			strings.Join(row.stages, " → "),
			strings.Join(displayContentTypes(row.workflow.ContentTypes), ", "),
			strconv.Itoa(row.records),
		})
	}
	aligns := []columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight}
	fmt.Fprintln(cmd.OutOrStdout(), renderTable(headers, tableRows, aligns))
	return nil
}

func collectWorkflowRow(ctx context.Context, st *store.Store, workflow *store.Workflow) (workflowRow, error) {
	byID, err := st.StagesByWorkflow(ctx, workflow.ID)
	if err != nil {
		return workflowRow{}, err
	}

	names := make([]string, 0, len(byID))
	records := 0
	for _, stageID := range workflow.StageOrder {
		stage, ok := byID[stageID]
		if !ok {
			continue
		}
		names = append(names, stage.Name)
		count, err := st.CountStageLinksByStage(ctx, stage.ID)
		if err != nil {
			return workflowRow{}, err
		}
		records += count
	}
	return workflowRow{workflow: workflow, stages: names, records: records}, nil
}

// displayContentTypes renders uids like "api.article" as "Article".
func displayContentTypes(uids []string) []string {
	caser := cases.Title(language.English)
	out := make([]string, 0, len(uids))
	for _, uid := range uids {
		name := uid
		if idx := strings.LastIndex(uid, "."); idx >= 0 && idx < len(uid)-1 {
			name = uid[idx+1:]
		}
		name = strings.NewReplacer("-", " ", "_", " ").Replace(name)
		out = append(out, caser.String(name))
	}
	sort.Strings(out)
	return out
}
