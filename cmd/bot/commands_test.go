package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEveryCommandHasAController(t *testing.T) {
	controllers := slashControllers()

	for _, cmd := range slashCommands() {
		require.Contains(t, controllers, cmd.Name, "command %q is registered without a controller", cmd.Name)
		require.NotEmpty(t, cmd.Description, "command %q has no description", cmd.Name)
	}
	require.Len(t, controllers, len(slashCommands()), "controller map has entries for unregistered commands")
}

func TestHelpEmbedListsEveryCommand(t *testing.T) {
	embed := helpEmbed()
	require.NotEmpty(t, embed.Fields)

	var sb strings.Builder
	for _, field := range embed.Fields {
		sb.WriteString(field.Value)
		sb.WriteByte('\n')
	}
	listing := sb.String()

	for _, cmd := range slashCommands() {
		if cmd.Name == HelpCmdName {
			continue
		}
		require.Contains(t, listing, "/"+cmd.Name, "command %q is missing from the help listing", cmd.Name)
	}
}
