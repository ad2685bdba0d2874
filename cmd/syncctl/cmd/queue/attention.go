// cmd/syncctl/cmd/queue/attention.go
package queue

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ckwahalathanthri/epic-green-erp-sub006/internal/app/syncctl"
)

var AttentionCmd = &cobra.Command{
	Use:   "attention",
	Short: "Элементы, требующие вмешательства",
	Long: `Показывает элементы очереди, которые не будут обработаны автоматически:
исчерпавшие лимит повторов и ожидающие разрешения конфликта.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := syncctl.FromContext(cmd.Context())
		if err != nil {
			return err
		}

		items, err := client.Attention(cmd.Context())
		if err != nil {
			return fmt.Errorf("ошибка получения списка: %w", err)
		}

		if len(items) == 0 {
			fmt.Println("Вмешательство не требуется")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "ID\tСущность\tОперация\tСтатус\tОшибка\t\n")

		for _, item := range items {
			message := item.ErrorMessage
			if item.ConflictID != nil {
				message = fmt.Sprintf("конфликт %d", *item.ConflictID)
			}
			fmt.Fprintf(w, "%d\t%s:%s\t%s\t%s\t%s\t\n",
				item.ID,
				item.EntityType,
				item.EntityID,
				item.Operation,
				statusColor(item.Status),
				message,
			)
		}

		w.Flush()
		fmt.Printf("\nВсего: %d\n", len(items))
		return nil
	},
}
