package session

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ckwahalathanthri/epic-green-erp-sub006/internal/domain/synclog"
)

// SessionCmd - родительская команда для операций с сессиями синхронизации
var SessionCmd = &cobra.Command{
	Use:     "sessions",
	Aliases: []string{"session"},
	Short:   "Сессии синхронизации",
	Long:    `Запуск сессий синхронизации и просмотр их истории.`,
}

func statusColor(status synclog.Status) string {
	switch status {
	case synclog.StatusCompleted:
		return color.GreenString(string(status))
	case synclog.StatusFailed:
		return color.RedString(string(status))
	case synclog.StatusCancelled:
		return color.YellowString(string(status))
	case synclog.StatusInProgress:
		return color.CyanString(string(status))
	default:
		return string(status)
	}
}

func init() {
	SessionCmd.AddCommand(RunCmd)
	SessionCmd.AddCommand(ListCmd)
	SessionCmd.AddCommand(CancelCmd)
}
