package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mwantia/cmdparse"
	"github.com/mwantia/cmdparse/data"
	"github.com/mwantia/cmdparse/entity/backend"
	"github.com/mwantia/cmdparse/reader"
)

func registerCommands(service *cmdparse.CommandService, dir backend.EntityBackend) error {
	users := reader.Entity(data.EntityKindUser, dir)
	roles := reader.Entity(data.EntityKindRole, dir)
	channels := reader.Entity(data.EntityKindChannel, dir)

	commands := []*cmdparse.CommandInfo{
		cmdparse.NewCommand("echo", func(ctx context.Context, cc *cmdparse.CommandContext) (any, error) {
			return cmdparse.Arg[string](cc, 0), nil
		},
			cmdparse.WithAliases("say"),
			cmdparse.WithCommandSummary("Prints the rest of the line unchanged"),
			cmdparse.WithParameters(cmdparse.NewParameter[string]("text", cmdparse.Remainder())),
		),

		cmdparse.NewCommand("sum", func(ctx context.Context, cc *cmdparse.CommandContext) (any, error) {
			total := 0
			for _, n := range cmdparse.Arg[[]int](cc, 0) {
				total += n
			}
			return total, nil
		},
			cmdparse.WithCommandSummary("Adds up a list of numbers"),
			cmdparse.WithParameters(cmdparse.NewParameter[int]("numbers", cmdparse.Greedy())),
		),

		cmdparse.NewCommand("greet", func(ctx context.Context, cc *cmdparse.CommandContext) (any, error) {
			user := cmdparse.Arg[*data.Entity](cc, 0)
			times := cmdparse.Arg[int](cc, 1)
			if times < 1 || times > 10 {
				return nil, data.NewCommandError(data.ErrorUnsuccessful, "Times must be between 1 and 10.")
			}
			return strings.TrimSpace(strings.Repeat(fmt.Sprintf("Hello, %s! ", user.DisplayName()), times)), nil
		},
			cmdparse.WithCommandSummary("Greets a user by mention, id or name"),
			cmdparse.WithParameters(
				cmdparse.NewParameter[*data.Entity]("user", cmdparse.WithReader(users), cmdparse.WithTypeName("user")),
				cmdparse.NewParameter[int]("times", cmdparse.Optional(1)),
			),
		),

		cmdparse.NewCommand("grant", func(ctx context.Context, cc *cmdparse.CommandContext) (any, error) {
			role := cmdparse.Arg[*data.Entity](cc, 0)
			granted := cmdparse.Arg[[]*data.Entity](cc, 1)

			names := make([]string, 0, len(granted))
			for _, user := range granted {
				names = append(names, user.DisplayName())
			}
			return fmt.Sprintf("Granted %s to %s", role.Name, strings.Join(names, ", ")), nil
		},
			cmdparse.WithCommandSummary("Grants a role to one or more users"),
			cmdparse.WithParameters(
				cmdparse.NewParameter[*data.Entity]("role", cmdparse.WithReader(roles), cmdparse.WithTypeName("role")),
				cmdparse.NewParameter[*data.Entity]("users", cmdparse.WithReader(users), cmdparse.WithTypeName("user"), cmdparse.Greedy()),
			),
		),

		cmdparse.NewCommand("whois", func(ctx context.Context, cc *cmdparse.CommandContext) (any, error) {
			user := cmdparse.Arg[*data.Entity](cc, 0)
			return fmt.Sprintf("%s (%s), id %s, %s", user.Name, user.DisplayName(), user.ID, user.GetAttribute(data.AttributeStatus, "offline")), nil
		},
			cmdparse.WithCommandSummary("Shows details about a user"),
			cmdparse.WithParameters(cmdparse.NewParameter[*data.Entity]("user", cmdparse.WithReader(users), cmdparse.WithTypeName("user"))),
		),

		cmdparse.NewCommand("topic", func(ctx context.Context, cc *cmdparse.CommandContext) (any, error) {
			channel := cmdparse.Arg[*data.Entity](cc, 0)
			topic := cmdparse.Arg[string](cc, 1)
			if topic == "" {
				return fmt.Sprintf("#%s: %s", channel.Name, channel.GetAttribute(data.AttributeTopic, "no topic")), nil
			}

			channel.SetAttribute(data.AttributeTopic, topic)
			if err := dir.PutEntity(ctx, channel); err != nil {
				return nil, err
			}
			return fmt.Sprintf("Topic of #%s set to '%s'", channel.Name, topic), nil
		},
			cmdparse.WithCommandSummary("Shows or changes the topic of a channel"),
			cmdparse.WithParameters(
				cmdparse.NewParameter[*data.Entity]("channel", cmdparse.WithReader(channels), cmdparse.WithTypeName("channel")),
				cmdparse.NewParameter[string]("topic", cmdparse.Optional(""), cmdparse.Remainder()),
			),
		),

		cmdparse.NewCommand("tag", func(ctx context.Context, cc *cmdparse.CommandContext) (any, error) {
			labels := cmdparse.Arg[[]string](cc, 1)
			return fmt.Sprintf("%s: [%s]", cmdparse.Arg[string](cc, 0), strings.Join(labels, ", ")), nil
		},
			cmdparse.WithCommandSummary("Attaches labels to a name"),
			cmdparse.WithParameters(
				cmdparse.NewParameter[string]("name"),
				cmdparse.NewParameter[string]("labels", cmdparse.Multiple()),
			),
		),

		cmdparse.NewCommand("remind", func(ctx context.Context, cc *cmdparse.CommandContext) (any, error) {
			in := cmdparse.Arg[time.Duration](cc, 0)
			return fmt.Sprintf("Reminder set for %s: %s", time.Now().Add(in).Format(time.Kitchen), cmdparse.Arg[string](cc, 1)), nil
		},
			cmdparse.WithCommandSummary("Schedules a reminder, e.g. 'remind 1h30m stretch'"),
			cmdparse.WithParameters(
				cmdparse.NewParameter[time.Duration]("in"),
				cmdparse.NewParameter[string]("message", cmdparse.Remainder()),
			),
		),

		cmdparse.NewCommand("users", func(ctx context.Context, cc *cmdparse.CommandContext) (any, error) {
			result, err := dir.QueryEntities(ctx, &backend.EntityQuery{
				Kind:   data.EntityKindUser,
				Limit:  cmdparse.Arg[int](cc, 0),
				Offset: cmdparse.Arg[int](cc, 1),
			})
			if err != nil {
				return nil, err
			}

			var sb strings.Builder
			for _, user := range result.Candidates {
				fmt.Fprintf(&sb, "%-6s %s\n", user.ID, user.DisplayName())
			}
			fmt.Fprintf(&sb, "%d of %d users", len(result.Candidates), result.TotalCount)
			return sb.String(), nil
		},
			cmdparse.WithCommandSummary("Lists users in the directory"),
			cmdparse.WithParameters(
				cmdparse.NewParameter[int]("limit", cmdparse.Optional(10)),
				cmdparse.NewParameter[int]("offset", cmdparse.Optional(0)),
			),
		),

		cmdparse.NewCommand("help", func(ctx context.Context, cc *cmdparse.CommandContext) (any, error) {
			var sb strings.Builder
			for i, command := range service.Commands() {
				if i > 0 {
					sb.WriteByte('\n')
				}
				fmt.Fprintf(&sb, "%-40s %s", command.Usage(), command.Summary)
			}
			return sb.String(), nil
		},
			cmdparse.WithAliases("?"),
			cmdparse.WithCommandSummary("Lists all commands"),
		),
	}

	for _, command := range commands {
		if err := service.AddCommand(command); err != nil {
			return err
		}
	}
	return nil
}
