// bot/commands/definitions.go
package commands

import (
	"github.com/Ftotnem/DAYZ-BOT/shared/leaderboard"
	"github.com/bwmarrin/discordgo"
)

const (
	LeaderboardCommand = "leaderboard"
	StatsCommand       = "stats"

	optionType   = "type"
	optionServer = "server"
	optionID     = "id"

	// maxChoices is the platform limit on choices per option.
	maxChoices = 25
)

// Definitions builds the slash commands. The server option is only offered
// when more than one server is configured.
func Definitions(stats []leaderboard.Statistic, servers []string) []*discordgo.ApplicationCommand {
	typeChoices := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(stats))
	for _, stat := range stats {
		typeChoices = append(typeChoices, &discordgo.ApplicationCommandOptionChoice{
			Name:  stat.Label(),
			Value: string(stat),
		})
	}

	lb := &discordgo.ApplicationCommand{
		Name:        LeaderboardCommand,
		Description: "Display your DayZ Leaderboard",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        optionType,
				Description: "The type of leaderboard to display",
				Required:    false,
				Choices:     typeChoices,
			},
		},
	}
	stat := &discordgo.ApplicationCommand{
		Name:        StatsCommand,
		Description: "Display information for a specific player",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        optionID,
				Description: "The player's CFTools Cloud ID or Steam64 ID",
				Required:    true,
			},
		},
	}

	if len(servers) > 1 {
		serverChoices := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(servers))
		for _, name := range servers {
			if len(serverChoices) == maxChoices {
				break
			}
			serverChoices = append(serverChoices, &discordgo.ApplicationCommandOptionChoice{Name: name, Value: name})
		}
		serverOption := &discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        optionServer,
			Description: "The server to display data for",
			Required:    false,
			Choices:     serverChoices,
		}
		lb.Options = append(lb.Options, serverOption)
		stat.Options = append(stat.Options, serverOption)
	}

	return []*discordgo.ApplicationCommand{lb, stat}
}
