// cmd/syncctl/cmd/conflict/list.go
package conflict

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
	listType   string
	listFormat string
	listLimit  int
	listOffset int
)

var ListCmd = &cobra.Command{
	Use:   "list",
	Short: "Список конфликтов",
	Long:  `Просмотр конфликтов устройства. По умолчанию показываются только неразрешенные.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := syncctl.FromContext(cmd.Context())
		if err != nil {
			return err
		}

		conflicts, total, err := client.Conflicts(cmd.Context(), listStatus, listType, listLimit, listOffset)
		if err != nil {
			return fmt.Errorf("ошибка получения конфликтов: %w", err)
		}

		if listFormat == "json" {
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			return encoder.Encode(conflicts)
		}

		if len(conflicts) == 0 {
			fmt.Println("Конфликты не найдены")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "ID\tСущность\tТип\tСтатус\tВерсии (база/сервер)\tОбнаружен\t\n")

		for _, c := range conflicts {
			fmt.Fprintf(w, "%d\t%s:%s\t%s\t%s\t%d/%d\t%s\t\n",
				c.ID,
				c.EntityType,
				c.EntityID,
				c.Type,
				statusColor(c.Status),
				c.BaseVersion,
				c.ServerVersion,
				c.DetectedAt.Format("2006-01-02 15:04"),
			)
		}

		w.Flush()
		fmt.Printf("\nПоказано %d из %d\n", len(conflicts), total)
		return nil
	},
}

func init() {
	ListCmd.Flags().StringVarP(&listStatus, "status", "s", "DETECTED", "фильтр по статусу (DETECTED, RESOLVED, IGNORED)")
	ListCmd.Flags().StringVarP(&listType, "type", "t", "", "фильтр по типу сущности")
	ListCmd.Flags().StringVarP(&listFormat, "format", "f", "table", "формат вывода (table, json)")
	ListCmd.Flags().IntVar(&listLimit, "limit", 50, "ограничение количества конфликтов")
	ListCmd.Flags().IntVar(&listOffset, "offset", 0, "смещение для пагинации")
}
