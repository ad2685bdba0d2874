// cmd/syncctl/cmd/root.go
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ckwahalathanthri/epic-green-erp-sub006/cmd/syncctl/cmd/conflict"
	"github.com/ckwahalathanthri/epic-green-erp-sub006/cmd/syncctl/cmd/queue"
	"github.com/ckwahalathanthri/epic-green-erp-sub006/cmd/syncctl/cmd/session"
	"github.com/ckwahalathanthri/epic-green-erp-sub006/internal/app/syncctl"
)

var (
	serverAddr string
	token      string
)

var rootCmd = &cobra.Command{
	Use:   "syncctl",
	Short: "syncctl - консоль оператора мобильной синхронизации",
	Long: `syncctl — инструмент оператора для управления очередью мобильной
синхронизации ERP: просмотр и повтор элементов очереди, разрешение
конфликтов и история сессий.

Адрес сервера и токен устройства можно задать флагами --server и --token
или переменными окружения SYNCCTL_SERVER и SYNCCTL_TOKEN.`,
	PersistentPreRunE: setupClient,
	SilenceUsage:      true,
	SilenceErrors:     true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Ошибка: %v\n", err)
		os.Exit(1)
	}
}

func setupClient(cmd *cobra.Command, _ []string) error {
	if serverAddr == "" {
		serverAddr = os.Getenv("SYNCCTL_SERVER")
	}
	if serverAddr == "" {
		serverAddr = "localhost:8080"
	}
	if token == "" {
		token = os.Getenv("SYNCCTL_TOKEN")
	}
	if token == "" {
		return fmt.Errorf("не задан токен устройства: укажите --token или SYNCCTL_TOKEN")
	}

	client := syncctl.New(serverAddr, token)
	cmd.SetContext(context.WithValue(cmd.Context(), syncctl.ClientKey, client))

	return nil
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Проверить доступность сервера",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := syncctl.FromContext(cmd.Context())
		if err != nil {
			return err
		}

		if err := client.HealthCheck(cmd.Context()); err != nil {
			return err
		}

		fmt.Println("Сервер доступен")
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverAddr, "server", "", "адрес сервера синхронизации")
	rootCmd.PersistentFlags().StringVar(&token, "token", "", "токен устройства")

	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(queue.QueueCmd)
	rootCmd.AddCommand(conflict.ConflictCmd)
	rootCmd.AddCommand(session.SessionCmd)
}
