package cli

import (
	"os"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/bambinounos/eia/internal/config"
)

var (
	db  *gorm.DB
	cfg *config.Config
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "eia",
	Short: "Agente IA de detección de oportunidades de negocio",
	Long: `EIA escanea cuentas de correo IMAP, analiza los mensajes no leídos y
registra las oportunidades de negocio detectadas para su revisión.

Comandos disponibles:
  eia init-db        # Crea las tablas de la base de datos
  eia scan           # Ejecuta un ciclo de escaneo completo
  eia check-config   # Valida la configuración cargada
  eia key show       # Muestra la clave de API actual
  eia key reset      # Genera una nueva clave de API`,
}

// Execute runs the CLI with the provided database and config
func Execute(database *gorm.DB, config *config.Config) {
	db = database
	cfg = config

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(initDBCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(checkConfigCmd)
	rootCmd.AddCommand(keyCmd)
}
