package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bambinounos/eia/internal/analysis"
	"github.com/bambinounos/eia/internal/services"
)

// scanCmd runs one full scan cycle in the foreground
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Ejecuta un ciclo de escaneo completo",
	Long: `Conecta con todas las cuentas configuradas, procesa los mensajes no
leídos y registra las oportunidades detectadas. Termina al completar el ciclo.`,
	Run: func(cmd *cobra.Command, args []string) {
		analyzer, err := analysis.NewAnalyzerFromConfig(cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: no se pudo inicializar el analizador: %v\n", err)
			os.Exit(1)
		}

		ledgerService := services.NewLedgerService(db)
		opportunityService := services.NewOpportunityService(db)
		logService := services.NewLogServiceWithLevel(db, cfg.LogLevel)
		scanner := services.NewScanner(cfg, ledgerService, opportunityService, logService, analyzer)

		fmt.Printf("Iniciando escaneo de %d cuenta(s)...\n", len(cfg.EmailAccounts))
		summary := scanner.ProcessAllAccounts()

		fmt.Println()
		fmt.Println("Resumen del ciclo:")
		fmt.Printf("  Mensajes vistos:          %d\n", summary.Seen)
		fmt.Printf("  Mensajes procesados:      %d\n", summary.Processed)
		fmt.Printf("  Duplicados omitidos:      %d\n", summary.Duplicates)
		fmt.Printf("  Oportunidades detectadas: %d\n", summary.Opportunities)

		failed := false
		for _, acc := range summary.Accounts {
			if acc.Error != "" {
				failed = true
				fmt.Printf("  Cuenta %s: ERROR (%s)\n", acc.Account, acc.Error)
			}
		}
		if failed {
			os.Exit(1)
		}
	},
}
