package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/hupe1980/kitchenmesh/orders"
)

func newOrderCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "order [text...]",
		Short: "Submit one order and print its event stream",
		Long: "Runs a single order through the kitchen pipeline and prints every\n" +
			"emitted status event as a JSON line. Without arguments a random order\n" +
			"is generated.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.close(ctx)

			input := strings.Join(args, " ")
			if strings.TrimSpace(input) == "" {
				input = orders.NewStaticGenerator(time.Now().UnixNano()).GenerateRandomOrder()
			}
			fmt.Fprintf(cmd.OutOrStdout(), "submitting order: %s\n", input)

			events, cancel := a.broadcaster.Subscribe()
			defer cancel()

			done := make(chan error, 1)
			go func() {
				_, err := a.engine.Execute(ctx, a.definition, input)
				done <- err
			}()

			out := cmd.OutOrStdout()
			for {
				select {
				case evt := <-events:
					line, err := json.Marshal(evt)
					if err != nil {
						continue
					}
					fmt.Fprintln(out, string(line))
				case err := <-done:
					// Drain events already queued before the run finished.
					for {
						select {
						case evt := <-events:
							if line, jsonErr := json.Marshal(evt); jsonErr == nil {
								fmt.Fprintln(out, string(line))
							}
						default:
							return err
						}
					}
				}
			}
		},
	}
	return cmd
}
