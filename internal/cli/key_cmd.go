package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bambinounos/eia/internal/api/middleware"
)

// keyCmd represents the key command group
var keyCmd = &cobra.Command{
	Use:   "key",
	Short: "Gestión de la clave de API",
	Long:  `Muestra o reinicia la clave de API que protege los endpoints HTTP.`,
}

// keyShowCmd shows the current API key
var keyShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Muestra la clave de API actual",
	Run: func(cmd *cobra.Command, args []string) {
		manager, err := middleware.NewAPIKeyManager(cfg.DataDir)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: no se pudo inicializar el gestor de claves: %v\n", err)
			os.Exit(1)
		}

		fmt.Println("Clave de API actual:")
		fmt.Println(manager.GetCurrentKey())
	},
}

// keyResetCmd resets the API key
var keyResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Genera una nueva clave de API",
	Long:  `Genera una nueva clave de API; la clave anterior deja de ser válida. Pide confirmación.`,
	Run: func(cmd *cobra.Command, args []string) {
		manager, err := middleware.NewAPIKeyManager(cfg.DataDir)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: no se pudo inicializar el gestor de claves: %v\n", err)
			os.Exit(1)
		}

		fmt.Println("Clave de API actual:")
		fmt.Println(manager.GetCurrentKey())
		fmt.Println()

		fmt.Print("Advertencia: los clientes que usen la clave anterior perderán acceso.\n")
		fmt.Print("¿Seguro que desea reiniciar la clave de API? (yes/no): ")

		reader := bufio.NewReader(os.Stdin)
		input, err := reader.ReadString('\n')
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: no se pudo leer la entrada: %v\n", err)
			os.Exit(1)
		}

		input = strings.TrimSpace(strings.ToLower(input))
		if input != "yes" && input != "y" {
			fmt.Println("Operación cancelada.")
			return
		}

		newKey, err := manager.ResetKey()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: no se pudo reiniciar la clave: %v\n", err)
			os.Exit(1)
		}

		fmt.Println()
		fmt.Println("Clave de API reiniciada con éxito.")
		fmt.Println("Nueva clave de API:")
		fmt.Println(newKey)
	},
}

func init() {
	keyCmd.AddCommand(keyShowCmd)
	keyCmd.AddCommand(keyResetCmd)
}
