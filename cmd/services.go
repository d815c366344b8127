package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dockhand/dockhand/internal/compose"
	"github.com/dockhand/dockhand/internal/config"
	"github.com/dockhand/dockhand/internal/kuma"
	"github.com/dockhand/dockhand/internal/log"
	"github.com/dockhand/dockhand/internal/status"
)

var showContainers bool

var servicesCmd = &cobra.Command{
	Use:   "services",
	Short: "List configured services and their status",
	Long: `List every configured service with its reconciled status. This runs the
same inspection the dashboard uses, directly against docker, without needing
a running server.`,
	RunE: runServices,
}

func init() {
	servicesCmd.Flags().BoolVar(&showContainers, "containers", false, "also list the container services in each compose file")
	rootCmd.AddCommand(servicesCmd)
}

func runServices(cmd *cobra.Command, args []string) error {
	logger := log.New(verbose)

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	table, err := config.NewTable(cfg.ServicesFile, cfg.ComposeDir, logger)
	if err != nil {
		return fmt.Errorf("load services: %w", err)
	}

	kumaClient := kuma.NewClient(cfg.KumaURL, cfg.KumaAPIKey, cfg.KumaCacheTTL, logger)
	reconciler := status.NewReconciler(compose.NewRunner(), table, kumaClient, logger)
	snapshots := reconciler.Snapshot(cmd.Context())

	for _, svc := range table.Services() {
		snap := snapshots[svc.Name]
		line := fmt.Sprintf("%-24s %-8s", svc.Name, snap.Status)
		if snap.KumaStatus != "" {
			line += "  kuma:" + snap.KumaStatus
		}
		fmt.Println(line)

		if showContainers {
			if f, err := compose.Load(table.ComposePath(svc)); err == nil && len(f.Services) > 0 {
				fmt.Printf("  containers: %s\n", strings.Join(f.ServiceNames(), ", "))
			}
		}
	}
	return nil
}
