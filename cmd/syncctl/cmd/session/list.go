// cmd/syncctl/cmd/session/list.go
package session

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ckwahalathanthri/epic-green-erp-sub006/internal/app/syncctl"
)

var (
	listStatus string
	listFormat string
	listLimit  int
	listOffset int
)

var ListCmd = &cobra.Command{
	Use:   "list",
	Short: "История сессий",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := syncctl.FromContext(cmd.Context())
		if err != nil {
			return err
		}

		sessions, total, err := client.Sessions(cmd.Context(), listStatus, listLimit, listOffset)
		if err != nil {
			return fmt.Errorf("ошибка получения истории: %w", err)
		}

		if listFormat == "json" {
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			return encoder.Encode(sessions)
		}

		if len(sessions) == 0 {
			fmt.Println("Сессии не найдены")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "ID\tВид\tНаправление\tСтатус\tВверх/Вниз\tКонфликты\tНачата\t\n")

		for _, s := range sessions {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d/%d\t%d\t%s\t\n",
				shortID(s.ID),
				s.SyncType,
				s.Direction,
				statusColor(s.Status),
				s.Counters.RecordsUploaded,
				s.Counters.RecordsDownloaded,
				s.Counters.ConflictsDetected,
				s.StartedAt.Format("2006-01-02 15:04"),
			)
		}

		w.Flush()
		fmt.Printf("\nПоказано %d из %d\n", len(sessions), total)
		return nil
	},
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func init() {
	ListCmd.Flags().StringVarP(&listStatus, "status", "s", "", "фильтр по статусу (INITIATED, IN_PROGRESS, COMPLETED, FAILED, CANCELLED)")
	ListCmd.Flags().StringVarP(&listFormat, "format", "f", "table", "формат вывода (table, json)")
	ListCmd.Flags().IntVar(&listLimit, "limit", 20, "ограничение количества сессий")
	ListCmd.Flags().IntVar(&listOffset, "offset", 0, "смещение для пагинации")
}
