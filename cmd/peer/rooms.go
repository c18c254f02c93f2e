package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/Wyydra/rendezvous/internal/adapter/driven/directory"
	"github.com/Wyydra/rendezvous/internal/core/port"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

var (
	flagRoomDescription string
	flagRoomMax         int
	flagRoomPublic      bool
	flagRoomName        string
)

var roomsCmd = &cobra.Command{
	Use:   "rooms",
	Short: "Manage rooms in the room directory",
}

var roomsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List your rooms",
	Args:  cobra.NoArgs,
	RunE: withDirectory(func(ctx context.Context, dir port.RoomDirectory, _ []string) error {
		rooms, err := dir.List(ctx)
		if err != nil {
			return err
		}
		fmt.Println(roomsTable(rooms))
		return nil
	}),
}

var roomsGetCmd = &cobra.Command{
	Use:   "get ID",
	Short: "Show one room",
	Args:  cobra.ExactArgs(1),
	RunE: withDirectory(func(ctx context.Context, dir port.RoomDirectory, args []string) error {
		room, err := dir.Get(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Println(roomsTable([]port.RoomRecord{room}))
		return nil
	}),
}

var roomsCreateCmd = &cobra.Command{
	Use:   "create NAME",
	Short: "Create a room",
	Args:  cobra.ExactArgs(1),
	RunE: withDirectory(func(ctx context.Context, dir port.RoomDirectory, args []string) error {
		room, err := dir.Create(ctx, port.RoomRecord{
			Name:            args[0],
			Description:     flagRoomDescription,
			MaxParticipants: flagRoomMax,
			IsPublic:        flagRoomPublic,
		})
		if err != nil {
			return err
		}
		fmt.Println(roomsTable([]port.RoomRecord{room}))
		return nil
	}),
}

var roomsUpdateCmd = &cobra.Command{
	Use:   "update ID",
	Short: "Rename or describe a room",
	Args:  cobra.ExactArgs(1),
	RunE: withDirectory(func(ctx context.Context, dir port.RoomDirectory, args []string) error {
		room, err := dir.Update(ctx, args[0], port.RoomRecord{
			Name:            flagRoomName,
			Description:     flagRoomDescription,
			MaxParticipants: flagRoomMax,
			IsPublic:        flagRoomPublic,
		})
		if err != nil {
			return err
		}
		fmt.Println(roomsTable([]port.RoomRecord{room}))
		return nil
	}),
}

var roomsDeleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Delete a room",
	Args:  cobra.ExactArgs(1),
	RunE: withDirectory(func(ctx context.Context, dir port.RoomDirectory, args []string) error {
		msg, err := dir.Delete(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Println(msg)
		return nil
	}),
}

func init() {
	for _, c := range []*cobra.Command{roomsCreateCmd, roomsUpdateCmd} {
		c.Flags().StringVar(&flagRoomDescription, "description", "", "Room description")
		c.Flags().IntVar(&flagRoomMax, "max", 4, "Maximum participants")
		c.Flags().BoolVar(&flagRoomPublic, "public", false, "List the room publicly")
	}
	roomsUpdateCmd.Flags().StringVar(&flagRoomName, "name", "", "New room name")

	roomsCmd.AddCommand(roomsListCmd, roomsGetCmd, roomsCreateCmd, roomsUpdateCmd, roomsDeleteCmd)
}

var errNoDirectory = errors.New("no room directory configured, use --directory or PEER_DIRECTORY_URL")

func withDirectory(fn func(ctx context.Context, dir port.RoomDirectory, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		conf, _, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if conf.Directory.URL == "" {
			return errNoDirectory
		}
		dir, err := directory.New(conf.Directory.URL, conf.Directory.Token, nil)
		if err != nil {
			return err
		}
		return fn(cmd.Context(), dir, args)
	}
}

var (
	accent      = lipgloss.Color("#22d3ee")
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(accent).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

func roomsTable(rooms []port.RoomRecord) string {
	rows := make([][]string, 0, len(rooms))
	for _, r := range rooms {
		rows = append(rows, []string{r.ID, r.Name, strconv.Itoa(r.MaxParticipants), strconv.FormatBool(r.IsPublic), r.Description})
	}
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(accent)).
		Headers("ID", "NAME", "MAX", "PUBLIC", "DESCRIPTION").
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Render()
}
