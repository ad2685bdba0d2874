package conflict

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ckwahalathanthri/epic-green-erp-sub006/internal/domain/conflict"
)

// ConflictCmd - родительская команда для операций с конфликтами
var ConflictCmd = &cobra.Command{
	Use:     "conflicts",
	Aliases: []string{"conflict"},
	Short:   "Управление конфликтами синхронизации",
	Long:    `Просмотр и разрешение конфликтов между клиентскими и серверными изменениями.`,
}

func statusColor(status conflict.Status) string {
	switch status {
	case conflict.StatusDetected:
		return color.YellowString(string(status))
	case conflict.StatusResolved:
		return color.GreenString(string(status))
	default:
		return string(status)
	}
}

func init() {
	ConflictCmd.AddCommand(ListCmd)
	ConflictCmd.AddCommand(ShowCmd)
	ConflictCmd.AddCommand(ResolveCmd)
	ConflictCmd.AddCommand(IgnoreCmd)
}
