// cmd/syncctl/cmd/conflict/show.go
package conflict

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ckwahalathanthri/epic-green-erp-sub006/internal/app/syncctl"
	"github.com/ckwahalathanthri/epic-green-erp-sub006/internal/domain/snapshot"
)

var showFormat string

var ShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Просмотреть конфликт",
	Long:  `Показывает конфликт вместе с клиентской и серверной версиями данных.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := syncctl.FromContext(cmd.Context())
		if err != nil {
			return err
		}

		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("неверный ID конфликта: %w", err)
		}

		c, err := client.ConflictGet(cmd.Context(), id)
		if err != nil {
			return fmt.Errorf("ошибка получения конфликта: %w", err)
		}

		if showFormat == "json" {
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			return encoder.Encode(c)
		}

		fmt.Printf("ID:          %d\n", c.ID)
		fmt.Printf("Элемент:     %d\n", c.QueueItemID)
		fmt.Printf("Сущность:    %s:%s\n", c.EntityType, c.EntityID)
		fmt.Printf("Тип:         %s\n", c.Type)
		fmt.Printf("Статус:      %s\n", statusColor(c.Status))
		fmt.Printf("Версия базы: %d, версия сервера: %d\n", c.BaseVersion, c.ServerVersion)
		fmt.Printf("Обнаружен:   %s\n", c.DetectedAt.Format("2006-01-02 15:04:05"))
		if c.ResolutionStrategy != nil {
			fmt.Printf("Стратегия:   %s\n", *c.ResolutionStrategy)
		}
		if c.ResolvedBy != "" {
			fmt.Printf("Разрешил:    %s\n", c.ResolvedBy)
		}

		printSnapshot("Данные клиента", c.ClientData)
		printSnapshot("Данные сервера", c.ServerData)
		printSnapshot("Итоговые данные", c.ResolvedData)

		return nil
	},
}

func printSnapshot(title string, s *snapshot.Snapshot) {
	if s == nil || s.IsEmpty() {
		return
	}

	fmt.Printf("\n=== %s ===\n", title)
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		fmt.Println("(не удалось отобразить)")
		return
	}
	fmt.Println(string(data))
}

func init() {
	ShowCmd.Flags().StringVarP(&showFormat, "format", "f", "text", "формат вывода (text, json)")
}
