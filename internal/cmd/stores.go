package cmd

import (
	"fmt"

	"github.com/urfave/cli"

	appLog "calsync/internal/log"
	"calsync/internal/provider/icsdir"
	"calsync/internal/walker"
)

// StoresCmd lists the detected stores and the folders that would be used
// as calendar sources under the current rules.
var StoresCmd = cli.Command{
	Name:   "stores",
	Usage:  "List detected accounts and their calendar folders",
	Flags:  syncFlags,
	Action: runStores,
}

func runStores(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	appLog.SetVerbose(cfg.Verbose)

	prov, err := icsdir.Open(cfg.CalendarDir)
	if err != nil {
		return err
	}

	rules := walker.Rules{
		ExtraFolders: cfg.ExtraFolders,
		Exclusions:   cfg.Exclusions,
	}

	for _, store := range prov.ListStores() {
		fmt.Println(store.DisplayName)
		root, err := prov.RootFolder(store)
		if err != nil {
			appLog.Warn("store has no root folder", "store", store.DisplayName)
			continue
		}
		for _, folder := range walker.Walk(root, rules) {
			fmt.Printf("  %s (%d items)\n", folder.Name, len(folder.Items))
		}
	}
	return nil
}
