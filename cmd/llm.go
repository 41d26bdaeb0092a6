package cmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"
	"github.com/spf13/cobra"

	"github.com/abhisek/mockprep/internal/llm"
	"github.com/abhisek/mockprep/internal/store"
	"github.com/abhisek/mockprep/internal/ui/theme"
)

const timeLayout = "2006-01-02 15:04:05"

var llmCmd = &cobra.Command{
	Use:   "llm",
	Short: "Inspect recorded LLM calls for interviews",
}

var llmListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent LLM calls",
	RunE: func(cmd *cobra.Command, args []string) error {
		f := cmd.Flags()
		opts := store.QueryOpts{}
		opts.Limit, _ = f.GetInt("limit")
		opts.Purpose, _ = f.GetString("purpose")
		opts.Session, _ = f.GetString("session")

		return withStore(cmd, func(st *store.Store) error {
			events, err := st.EventRepo().QueryLLMEvents(cmd.Context(), opts)
			if err != nil {
				return fmt.Errorf("query events: %w", err)
			}
			out := cmd.OutOrStdout()
			if len(events) == 0 {
				fmt.Fprintln(out, theme.Hint.Render("No LLM calls recorded."))
				return nil
			}

			t := newTable("ID", "Time", "Purpose", "Interview", "Model", "In", "Out", "Ms", "OK")
			for _, e := range events {
				ok := theme.Good.Render("yes")
				if !e.Success {
					ok = theme.Weak.Render("no")
				}
				t.Row(
					strconv.FormatInt(e.ID, 10),
					e.Timestamp.Local().Format(timeLayout),
					e.Purpose,
					truncate(e.SessionID, 8),
					truncate(e.Model, 24),
					strconv.Itoa(e.InputTokens),
					strconv.Itoa(e.OutputTokens),
					strconv.FormatInt(e.LatencyMs, 10),
					ok,
				)
			}
			fmt.Fprintln(out, t.String())
			return nil
		})
	},
}

var llmViewCmd = &cobra.Command{
	Use:   "view <id>",
	Short: "Show the full prompt and response of one LLM call",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid event id %q", args[0])
		}
		return withStore(cmd, func(st *store.Store) error {
			e, err := st.EventRepo().GetLLMEvent(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("get event: %w", err)
			}
			if e == nil {
				return fmt.Errorf("event %d not found", id)
			}
			printEvent(cmd.OutOrStdout(), e)
			return nil
		})
	},
}

var llmStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize token usage and estimated cost",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(st *store.Store) error {
			ctx := cmd.Context()
			byPurpose, err := st.EventRepo().LLMUsageByPurpose(ctx)
			if err != nil {
				return fmt.Errorf("query usage: %w", err)
			}
			out := cmd.OutOrStdout()
			if len(byPurpose) == 0 {
				fmt.Fprintln(out, theme.Hint.Render("No LLM usage recorded."))
				return nil
			}
			byModel, err := st.EventRepo().LLMUsageByModel(ctx)
			if err != nil {
				return fmt.Errorf("query model usage: %w", err)
			}
			fmt.Fprintln(out, purposeTable(byPurpose))
			fmt.Fprintln(out)
			fmt.Fprintln(out, costTable(byModel))
			return nil
		})
	},
}

func purposeTable(rows []store.PurposeUsage) string {
	t := newTable("Purpose", "Calls", "Input", "Output", "Avg ms")
	var calls, in, outTok int
	for _, u := range rows {
		t.Row(u.Purpose, strconv.Itoa(u.Calls), strconv.Itoa(u.InputTokens),
			strconv.Itoa(u.OutputTokens), strconv.FormatInt(u.AvgLatencyMs, 10))
		calls += u.Calls
		in += u.InputTokens
		outTok += u.OutputTokens
	}
	t.Row("total", strconv.Itoa(calls), strconv.Itoa(in), strconv.Itoa(outTok), "")
	return theme.Subtitle.Render("Usage by purpose") + "\n" + t.String()
}

func costTable(rows []store.ModelUsage) string {
	t := newTable("Model", "Calls", "Input", "Output", "Cost")
	var total float64
	var unpriced []string
	for _, u := range rows {
		cost := "?"
		if c := llm.LookupCost(u.Model); c != nil {
			usd := c.Cost(u.InputTokens, u.OutputTokens)
			total += usd
			cost = formatCost(usd)
		} else {
			unpriced = append(unpriced, u.Model)
		}
		t.Row(truncate(u.Model, 32), strconv.Itoa(u.Calls), strconv.Itoa(u.InputTokens),
			strconv.Itoa(u.OutputTokens), cost)
	}
	label := "total"
	if len(unpriced) > 0 {
		label = "total (partial)"
	}
	t.Row(label, "", "", "", formatCost(total))

	s := theme.Subtitle.Render("Estimated cost (USD)") + "\n" + t.String()
	if len(unpriced) > 0 {
		s += "\n" + theme.Hint.Render("No pricing for: "+strings.Join(unpriced, ", "))
	}
	return s
}

func printEvent(out io.Writer, e *store.LLMEvent) {
	field := func(k, v string) {
		fmt.Fprintf(out, "%s %s\n", theme.Label.Render(fmt.Sprintf("%-10s", k+":")), v)
	}
	field("ID", strconv.FormatInt(e.ID, 10))
	field("Time", e.Timestamp.Local().Format(timeLayout))
	field("Model", e.Provider+"/"+e.Model)
	field("Purpose", e.Purpose)
	if e.SessionID != "" {
		field("Interview", e.SessionID)
	}
	field("Tokens", fmt.Sprintf("%d in, %d out", e.InputTokens, e.OutputTokens))
	field("Latency", fmt.Sprintf("%dms", e.LatencyMs))
	if e.Success {
		field("Result", theme.Good.Render("ok"))
	} else {
		field("Result", theme.Weak.Render("failed: "+e.ErrorMessage))
	}

	for _, part := range []struct{ title, body string }{
		{"Request", e.RequestBody},
		{"Response", e.ResponseBody},
	} {
		body := part.body
		if body == "" {
			body = theme.Hint.Render("(not captured)")
		}
		fmt.Fprintln(out)
		fmt.Fprintln(out, theme.Subtitle.Render(part.title))
		fmt.Fprintln(out, body)
	}
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(theme.Border)).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return theme.Label.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func formatCost(usd float64) string {
	if usd < 0.01 {
		return fmt.Sprintf("$%.4f", usd)
	}
	return fmt.Sprintf("$%.2f", usd)
}

func init() {
	llmListCmd.Flags().IntP("limit", "n", 20, "Number of calls to show")
	llmListCmd.Flags().StringP("purpose", "p", "", "Filter by purpose: question, evaluation, feedback, report, role")
	llmListCmd.Flags().StringP("session", "s", "", "Filter by interview id")

	llmCmd.AddCommand(llmListCmd, llmViewCmd, llmStatsCmd)
}
