// cmd/syncctl/cmd/session/run.go
package session

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ckwahalathanthri/epic-green-erp-sub006/internal/app/syncctl"
)

var (
	runSyncType  string
	runDirection string
)

var RunCmd = &cobra.Command{
	Use:   "run",
	Short: "Запустить сессию синхронизации",
	Long: `Запускает сессию синхронизации устройства и дожидается результата.

Сессия забирает очередь устройства партиями, применяет изменения к серверу
и фиксирует конфликты. Элементы, требующие вмешательства, выводятся после
завершения.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := syncctl.FromContext(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Println("Запуск синхронизации...")
		start := time.Now()

		session, attention, err := client.RunSession(cmd.Context(), runSyncType, runDirection)
		if err != nil {
			return fmt.Errorf("ошибка синхронизации: %w", err)
		}

		fmt.Printf("\nСессия %s завершена: %s\n", session.ID, statusColor(session.Status))
		fmt.Printf("Время выполнения: %v\n", time.Since(start).Round(time.Millisecond))
		fmt.Printf("Загружено на сервер: %d\n", session.Counters.RecordsUploaded)
		fmt.Printf("Загружено с сервера: %d\n", session.Counters.RecordsDownloaded)
		fmt.Printf("Обнаружено конфликтов: %d\n", session.Counters.ConflictsDetected)
		fmt.Printf("Разрешено конфликтов: %d\n", session.Counters.ConflictsResolved)
		if session.ErrorMessage != "" {
			fmt.Printf("Ошибка: %s\n", session.ErrorMessage)
		}

		if len(attention) > 0 {
			fmt.Printf("\nТребуют вмешательства: %d элементов\n", len(attention))
			fmt.Println("Подробности: syncctl queue attention")
		}

		return nil
	},
}

func init() {
	RunCmd.Flags().StringVar(&runSyncType, "type", "", "вид сессии (FULL, INCREMENTAL, PUSH, PULL)")
	RunCmd.Flags().StringVar(&runDirection, "direction", "", "направление (UPLOAD, DOWNLOAD, BIDIRECTIONAL)")
}
