package client

import (
	"bufio"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

// newWatchCommand tails /v1/watch on a running server and prints one JSON
// change per line.
func newWatchCommand(baseURL BaseURLFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [key]",
		Short: "Stream changes from a running server (SSE)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q := url.Values{}
			if len(args) == 1 {
				q.Set("key", args[0])
			}
			if v, _ := cmd.Flags().GetString("book"); v != "" {
				q.Set("book", v)
			}
			if v, _ := cmd.Flags().GetString("filter"); v != "" {
				q.Set("filter", v)
			}
			if v, _ := cmd.Flags().GetString("overflow"); v != "" {
				q.Set("overflow", v)
			}
			if n, _ := cmd.Flags().GetInt("buffer"); n > 0 {
				q.Set("buffer", strconv.Itoa(n))
			}
			limit, _ := cmd.Flags().GetInt("limit")
			base := baseURL()
			if v, _ := cmd.Flags().GetString("url"); v != "" {
				base = v
			}

			req, err := http.NewRequestWithContext(cmd.Context(), http.MethodGet, strings.TrimRight(base, "/")+"/v1/watch?"+q.Encode(), nil)
			if err != nil {
				return err
			}
			req.Header.Set("Accept", "text/event-stream")
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("watch: %s", resp.Status)
			}

			sc := bufio.NewScanner(resp.Body)
			var event string
			seen := 0
			for sc.Scan() {
				line := sc.Text()
				switch {
				case strings.HasPrefix(line, "event: "):
					event = strings.TrimPrefix(line, "event: ")
				case strings.HasPrefix(line, "data: "):
					data := strings.TrimPrefix(line, "data: ")
					if event == "error" {
						return fmt.Errorf("watch ended: %s", data)
					}
					fmt.Fprintln(cmd.OutOrStdout(), data)
					seen++
					if limit > 0 && seen >= limit {
						return nil
					}
				case line == "":
					event = ""
				}
			}
			if err := sc.Err(); err != nil && cmd.Context().Err() == nil {
				return err
			}
			return nil
		},
	}
	cmd.Flags().String("url", "", "Server base URL (default $FOLIO_HTTP or http://127.0.0.1:7080)")
	cmd.Flags().String("filter", "", "CEL filter over key, type_name, value, ts_ms, now_ms")
	cmd.Flags().String("overflow", "", "Overflow policy: buffer|drop_latest|drop_oldest|error")
	cmd.Flags().Int("buffer", 0, "Subscriber queue size")
	cmd.Flags().Int("limit", 0, "Exit after this many changes (0 = until interrupted)")
	return cmd
}
