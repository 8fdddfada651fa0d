package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bambinounos/eia/internal/database"
	"github.com/bambinounos/eia/internal/services"
)

// initDBCmd creates or updates the database schema
var initDBCmd = &cobra.Command{
	Use:   "init-db",
	Short: "Crea las tablas de la base de datos",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("Inicializando la base de datos...")
		if err := database.Migrate(db); err != nil {
			fmt.Fprintf(os.Stderr, "Error: la migración falló: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Base de datos inicializada con éxito.")
	},
}

var probeConnections bool

// checkConfigCmd validates the loaded configuration and optionally probes
// each IMAP account
var checkConfigCmd = &cobra.Command{
	Use:   "check-config",
	Short: "Valida la configuración cargada",
	Long: `Muestra las cuentas configuradas y los parámetros de escaneo. Con
--probe intenta además abrir una sesión IMAP con cada cuenta.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("Base de datos:       %s\n", cfg.Database.URL)
		fmt.Printf("Modo de análisis:    %s\n", cfg.NLP.Mode)
		fmt.Printf("Catálogo:            %s\n", cfg.ProductCatalogPath)
		fmt.Printf("Intervalo de escaneo: %v\n", cfg.ScanInterval())
		fmt.Printf("Marcar como leídos:  %t\n", cfg.IMAP.MarkAsSeen)
		fmt.Printf("Cuentas configuradas: %d\n", len(cfg.EmailAccounts))

		failed := false
		for _, account := range cfg.EmailAccounts {
			fmt.Printf("  - %s (%s:%d, ssl=%t, carpetas=%v)\n",
				account.Email, account.IMAPServer, account.IMAPPort, account.UseSSL, account.FoldersToScan)
			if probeConnections {
				if err := services.CheckIMAPConnection(account); err != nil {
					failed = true
					fmt.Printf("    Conexión: ERROR (%v)\n", err)
				} else {
					fmt.Println("    Conexión: OK")
				}
			}
		}
		if failed {
			os.Exit(1)
		}
		fmt.Println("Configuración válida.")
	},
}

func init() {
	checkConfigCmd.Flags().BoolVar(&probeConnections, "probe", false, "Probar la conexión IMAP de cada cuenta")
}
