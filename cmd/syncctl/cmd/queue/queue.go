package queue

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ckwahalathanthri/epic-green-erp-sub006/internal/domain/queue"
)

// QueueCmd - родительская команда для операций с очередью синхронизации
var QueueCmd = &cobra.Command{
	Use:   "queue",
	Short: "Управление очередью синхронизации",
	Long:  `Просмотр, повтор и восстановление элементов очереди мобильной синхронизации.`,
}

func statusColor(status queue.Status) string {
	switch status {
	case queue.StatusSynced:
		return color.GreenString(string(status))
	case queue.StatusFailed:
		return color.RedString(string(status))
	case queue.StatusConflict:
		return color.YellowString(string(status))
	case queue.StatusInProgress:
		return color.CyanString(string(status))
	default:
		return string(status)
	}
}

func init() {
	QueueCmd.AddCommand(ListCmd)
	QueueCmd.AddCommand(GetCmd)
	QueueCmd.AddCommand(RetryCmd)
	QueueCmd.AddCommand(RecoverCmd)
	QueueCmd.AddCommand(AttentionCmd)
}
