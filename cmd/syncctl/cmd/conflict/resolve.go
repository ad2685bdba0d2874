// cmd/syncctl/cmd/conflict/resolve.go
package conflict

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ckwahalathanthri/epic-green-erp-sub006/internal/app/syncctl"
	"github.com/ckwahalathanthri/epic-green-erp-sub006/internal/domain/snapshot"
)

var (
	resolveStrategy string
	resolveData     string
	resolveBy       string
)

var ResolveCmd = &cobra.Command{
	Use:   "resolve [id]",
	Short: "Разрешить конфликт",
	Long: `Разрешает конфликт выбранной стратегией.

SERVER_WINS оставляет серверную версию, CLIENT_WINS применяет клиентскую,
MERGE объединяет обе, MANUAL принимает итоговые данные через --data.

Пример:
  syncctl conflicts resolve 7 --strategy MANUAL --data '{"price": 120}' --by operator`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := syncctl.FromContext(cmd.Context())
		if err != nil {
			return err
		}

		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("неверный ID конфликта: %w", err)
		}

		var data *snapshot.Snapshot
		if resolveData != "" {
			data = snapshot.New()
			if err := json.Unmarshal([]byte(resolveData), data); err != nil {
				return fmt.Errorf("неверный JSON в --data: %w", err)
			}
		}

		resolved, err := client.Resolve(cmd.Context(), id, resolveStrategy, data, resolveBy)
		if err != nil {
			return fmt.Errorf("ошибка разрешения конфликта: %w", err)
		}

		fmt.Printf("Конфликт %d разрешен стратегией %s\n", resolved.ID, resolveStrategy)
		fmt.Println("Элемент очереди вернется в обработку при следующей сессии")
		return nil
	},
}

func init() {
	ResolveCmd.Flags().StringVar(&resolveStrategy, "strategy", "", "стратегия разрешения (SERVER_WINS, CLIENT_WINS, MERGE, MANUAL)")
	ResolveCmd.Flags().StringVar(&resolveData, "data", "", "итоговые данные в JSON (обязательны для MANUAL)")
	ResolveCmd.Flags().StringVar(&resolveBy, "by", "", "имя оператора (обязательно для MANUAL)")
	ResolveCmd.MarkFlagRequired("strategy")
}
