package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "update cache with latest updates from nostr",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		rc, err := openRepoContext(ctx)
		if err != nil {
			return err
		}
		defer rc.close()

		before, err := rc.store.Len()
		if err != nil {
			return err
		}
		if err := rc.client.RefreshProposals(ctx, rc.store, rc.repo, rc.relaySet()); err != nil {
			return err
		}
		after, err := rc.store.Len()
		if err != nil {
			return err
		}
		fmt.Printf("fetched %d new events\n", after-before)
		return nil
	},
}
