// cmd/syncctl/cmd/queue/retry.go
package queue

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ckwahalathanthri/epic-green-erp-sub006/internal/app/syncctl"
)

var RetryCmd = &cobra.Command{
	Use:   "retry [id]",
	Short: "Повторить провалившийся элемент",
	Long:  `Возвращает FAILED-элемент в статус PENDING для повторной обработки.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := syncctl.FromContext(cmd.Context())
		if err != nil {
			return err
		}

		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("неверный ID элемента: %w", err)
		}

		if err := client.QueueRetry(cmd.Context(), id); err != nil {
			return fmt.Errorf("ошибка повтора элемента: %w", err)
		}

		fmt.Printf("Элемент %d возвращен в очередь\n", id)
		return nil
	},
}
