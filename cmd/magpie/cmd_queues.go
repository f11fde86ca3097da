package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var queuesCmd = &cobra.Command{
	Use:   "queues",
	Short: "List the work queues the platform reports",
	Args:  cobra.NoArgs,
	RunE:  runQueues,
}

func runQueues(cmd *cobra.Command, args []string) error {
	client, err := newTMSClient()
	if err != nil {
		return err
	}

	defs, err := client.ListQueueDefinitions(cmd.Context())
	if err != nil {
		return err
	}
	if len(defs) == 0 {
		fmt.Println("no queues")
		return nil
	}
	for _, d := range defs {
		fmt.Printf("%s\t%s\n", d.ID, d.Name)
	}
	return nil
}
