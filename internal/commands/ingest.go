package commands

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pinehill-dev/pinehill/internal/app"
	"github.com/pinehill-dev/pinehill/internal/importer"
	"github.com/pinehill-dev/pinehill/internal/ingest"
	"github.com/pinehill-dev/pinehill/internal/model"
)

func newIngestCommand(dir func() string) *cobra.Command {
	var source string
	var inbox bool

	cmd := &cobra.Command{
		Use:   "ingest [text|-]",
		Short: "Ingest bank notifications",
		Long: "Ingest one notification given as arguments, messages from stdin (\"-\"), " +
			"or every *.txt file in import/ with --inbox.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if inbox == (len(args) > 0) {
				return fmt.Errorf("give either notification text or --inbox")
			}

			a, err := openApp(cmd, dir())
			if err != nil {
				return err
			}
			defer a.Close()

			if inbox {
				return runIngestInbox(cmd, a)
			}

			var msgs []model.InboundMessage
			if len(args) == 1 && args[0] == "-" {
				if msgs, err = importer.ReadMessages(cmd.InOrStdin()); err != nil {
					return err
				}
				for i := range msgs {
					if msgs[i].Source == "" {
						msgs[i].Source = source
					}
				}
			} else {
				msgs = []model.InboundMessage{{Source: source, Text: strings.Join(args, " ")}}
			}
			results, err := a.Pipeline.HandleBatch(cmd.Context(), msgs, a.Config.Ingest.Workers)
			printResults(cmd.OutOrStdout(), results)
			return err
		},
	}

	cmd.Flags().StringVar(&source, "source", "", "sender id of the notification")
	cmd.Flags().BoolVar(&inbox, "inbox", false, "ingest every file in import/")

	return cmd
}

func runIngestInbox(cmd *cobra.Command, a *app.App) error {
	files, err := importer.Scan(a.Dir)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(files) == 0 {
		fmt.Fprintln(out, "No message files in import/")
		return nil
	}

	for _, f := range files {
		msgs, err := importer.ReadFile(f.Path)
		if err != nil {
			return err
		}
		results, err := a.Pipeline.HandleBatch(cmd.Context(), msgs, a.Config.Ingest.Workers)
		if err != nil {
			return fmt.Errorf("ingesting %s: %w", f.Name, err)
		}
		fmt.Fprintf(out, "%s: %s\n", f.Name, summarize(results))
		if err := importer.MarkProcessed(a.Dir, f.Name); err != nil {
			return err
		}
	}
	return commitProject(cmd, a, fmt.Sprintf("ingest: %d files", len(files)))
}

func printResults(w io.Writer, results []ingest.Result) {
	for _, r := range results {
		switch r.Outcome {
		case "":
			// not reached before the batch stopped
		case ingest.OutcomeFailed:
			fmt.Fprintf(w, "failed: %s\n", r.Error)
		case ingest.OutcomePayment:
			fmt.Fprintf(w, "payment #%d %s %d원 %s\n", r.PaymentID, r.Month, r.Notification.Amount, r.Notification.Party)
		case ingest.OutcomeExpense:
			fmt.Fprintf(w, "expense #%d %s %d원 %s\n", r.ExpenseID, r.Month, r.Notification.Amount, r.Notification.Party)
		default:
			fmt.Fprintln(w, r.Outcome)
		}
	}
}

// summarize renders outcome counts, e.g. "2 payment, 1 unrecognized".
func summarize(results []ingest.Result) string {
	counts := make(map[ingest.Outcome]int)
	for _, r := range results {
		if r.Outcome != "" {
			counts[r.Outcome]++
		}
	}
	keys := make([]string, 0, len(counts))
	for o := range counts {
		keys = append(keys, string(o))
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%d %s", counts[ingest.Outcome(k)], k))
	}
	if len(parts) == 0 {
		return "empty"
	}
	return strings.Join(parts, ", ")
}
