// cmd/syncctl/cmd/queue/list.go
package queue

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ckwahalathanthri/epic-green-erp-sub006/internal/app/syncctl"
	"github.com/ckwahalathanthri/epic-green-erp-sub006/internal/domain/queue"
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
	Short: "Список элементов очереди",
	Long: `Просмотр очереди синхронизации устройства с фильтрацией по статусу
и типу сущности. Поддерживается пагинация через --limit и --offset.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := syncctl.FromContext(cmd.Context())
		if err != nil {
			return err
		}

		items, total, err := client.QueueList(cmd.Context(), listStatus, listType, listLimit, listOffset)
		if err != nil {
			return fmt.Errorf("ошибка получения очереди: %w", err)
		}

		if listFormat == "json" {
			return printItemsJSON(items)
		}
		return printItemsTable(items, total)
	},
}

func printItemsTable(items []*queue.Item, total int) error {
	if len(items) == 0 {
		fmt.Println("Очередь пуста")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "ID\tСущность\tОперация\tСтатус\tПопытки\tСоздан\t\n")

	for _, item := range items {
		fmt.Fprintf(w, "%d\t%s:%s\t%s\t%s\t%d/%d\t%s\t\n",
			item.ID,
			item.EntityType,
			item.EntityID,
			item.Operation,
			statusColor(item.Status),
			item.RetryCount,
			item.MaxRetries,
			item.CreatedAt.Format("2006-01-02 15:04"),
		)
	}

	w.Flush()
	fmt.Printf("\nПоказано %d из %d\n", len(items), total)
	return nil
}

func printItemsJSON(items []*queue.Item) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(items)
}

func init() {
	ListCmd.Flags().StringVarP(&listStatus, "status", "s", "", "фильтр по статусу (PENDING, IN_PROGRESS, SYNCED, FAILED, CONFLICT)")
	ListCmd.Flags().StringVarP(&listType, "type", "t", "", "фильтр по типу сущности")
	ListCmd.Flags().StringVarP(&listFormat, "format", "f", "table", "формат вывода (table, json)")
	ListCmd.Flags().IntVar(&listLimit, "limit", 50, "ограничение количества элементов")
	ListCmd.Flags().IntVar(&listOffset, "offset", 0, "смещение для пагинации")
}
