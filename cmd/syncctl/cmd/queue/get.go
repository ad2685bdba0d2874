// cmd/syncctl/cmd/queue/get.go
package queue

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ckwahalathanthri/epic-green-erp-sub006/internal/app/syncctl"
)

var getFormat string

var GetCmd = &cobra.Command{
	Use:   "get [id]",
	Short: "Просмотреть элемент очереди",
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

		item, err := client.QueueGet(cmd.Context(), id)
		if err != nil {
			return fmt.Errorf("ошибка получения элемента: %w", err)
		}

		if getFormat == "json" {
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			return encoder.Encode(item)
		}

		fmt.Printf("ID:          %d\n", item.ID)
		fmt.Printf("Сущность:    %s:%s\n", item.EntityType, item.EntityID)
		fmt.Printf("Операция:    %s\n", item.Operation)
		fmt.Printf("Статус:      %s\n", statusColor(item.Status))
		fmt.Printf("Приоритет:   %d\n", item.Priority)
		fmt.Printf("Попытки:     %d/%d\n", item.RetryCount, item.MaxRetries)
		fmt.Printf("Версия:      %d\n", item.BaseVersion)
		fmt.Printf("Создан:      %s\n", item.CreatedAt.Format("2006-01-02 15:04:05"))
		if item.SyncedAt != nil {
			fmt.Printf("Синхронизирован: %s\n", item.SyncedAt.Format("2006-01-02 15:04:05"))
		}
		if item.ConflictID != nil {
			fmt.Printf("Конфликт:    %d\n", *item.ConflictID)
		}
		if item.ErrorMessage != "" {
			fmt.Printf("Ошибка:      %s\n", item.ErrorMessage)
		}

		return nil
	},
}

func init() {
	GetCmd.Flags().StringVarP(&getFormat, "format", "f", "text", "формат вывода (text, json)")
}
