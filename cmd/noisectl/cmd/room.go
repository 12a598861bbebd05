package cmd

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var (
	roomName      string
	roomID        string
	roomThreshold float64
)

// roomLocation mirrors the server's location payload.
type roomLocation struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Threshold float64   `json:"threshold"`
	Chosen    bool      `json:"chosen"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// roomCmd represents the room command group
var roomCmd = &cobra.Command{
	Use:   "room",
	Short: "Room management commands",
	Long: `Commands for managing monitored rooms and their alert thresholds.

Exactly one room is chosen at a time; the chosen room is the one the
alert monitor watches.

Examples:
  # List all rooms
  noisectl room list

  # Add a room with a custom threshold
  noisectl room add --name "Reading Room" --threshold 65

  # Watch a different room
  noisectl room choose --name "Reading Room"

  # Change a room's alert threshold
  noisectl room set-threshold --name "Reading Room" --threshold 70`,
}

// roomListCmd lists all rooms
var roomListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all rooms",
	RunE: func(cmd *cobra.Command, args []string) error {
		var rooms []roomLocation
		if err := newClient().do(context.Background(), http.MethodGet, "/api/v1/locations", nil, &rooms); err != nil {
			return err
		}

		if GetOutput() == "json" {
			printJSON(rooms)
			return nil
		}

		if len(rooms) == 0 {
			fmt.Println("No rooms found.")
			return nil
		}

		fmt.Printf("\n%-36s  %-24s  %-10s  %s\n", "ID", "NAME", "THRESHOLD", "CHOSEN")
		fmt.Println(strings.Repeat("-", 84))
		for _, r := range rooms {
			chosen := ""
			if r.Chosen {
				chosen = "*"
			}
			fmt.Printf("%-36s  %-24s  %7.1f dB  %s\n", r.ID, truncate(r.Name, 24), r.Threshold, chosen)
		}
		fmt.Printf("\nTotal: %d room(s)\n", len(rooms))
		return nil
	},
}

// roomAddCmd creates a new room
var roomAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a new room",
	RunE: func(cmd *cobra.Command, args []string) error {
		if roomName == "" {
			return fmt.Errorf("--name is required")
		}

		body := map[string]any{"name": roomName}
		if cmd.Flags().Changed("threshold") {
			body["threshold"] = roomThreshold
		}

		var room roomLocation
		if err := newClient().do(context.Background(), http.MethodPost, "/api/v1/locations", body, &room); err != nil {
			return err
		}

		if GetOutput() == "json" {
			printJSON(room)
			return nil
		}
		fmt.Printf("Room %q created with threshold %.1f dB (id %s)\n", room.Name, room.Threshold, room.ID)
		return nil
	},
}

// roomChooseCmd marks a room as watched
var roomChooseCmd = &cobra.Command{
	Use:   "choose",
	Short: "Choose the room the monitor watches",
	RunE: func(cmd *cobra.Command, args []string) error {
		room, err := resolveRoom()
		if err != nil {
			return err
		}

		var chosen roomLocation
		if err := newClient().do(context.Background(), http.MethodPut,
			"/api/v1/locations/"+room.ID+"/choose", nil, &chosen); err != nil {
			return err
		}

		fmt.Printf("Now watching %q (threshold %.1f dB)\n", chosen.Name, chosen.Threshold)
		return nil
	},
}

// roomThresholdCmd updates a room's threshold
var roomThresholdCmd = &cobra.Command{
	Use:   "set-threshold",
	Short: "Set a room's alert threshold",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cmd.Flags().Changed("threshold") {
			return fmt.Errorf("--threshold is required")
		}

		room, err := resolveRoom()
		if err != nil {
			return err
		}

		var updated roomLocation
		if err := newClient().do(context.Background(), http.MethodPut,
			"/api/v1/locations/"+room.ID+"/threshold",
			map[string]any{"threshold": roomThreshold}, &updated); err != nil {
			return err
		}

		fmt.Printf("Threshold for %q set to %.1f dB\n", updated.Name, updated.Threshold)
		return nil
	},
}

// roomDeleteCmd removes a room
var roomDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete a room",
	RunE: func(cmd *cobra.Command, args []string) error {
		room, err := resolveRoom()
		if err != nil {
			return err
		}

		if err := newClient().do(context.Background(), http.MethodDelete,
			"/api/v1/locations/"+room.ID, nil, nil); err != nil {
			return err
		}

		fmt.Printf("Room %q deleted\n", room.Name)
		return nil
	},
}

// resolveRoom finds a room by --id or --name.
func resolveRoom() (*roomLocation, error) {
	if roomID == "" && roomName == "" {
		return nil, fmt.Errorf("--id or --name is required")
	}

	var rooms []roomLocation
	if err := newClient().do(context.Background(), http.MethodGet, "/api/v1/locations", nil, &rooms); err != nil {
		return nil, err
	}

	for i := range rooms {
		if roomID != "" && rooms[i].ID == roomID {
			return &rooms[i], nil
		}
		if roomID == "" && rooms[i].Name == roomName {
			return &rooms[i], nil
		}
	}
	return nil, fmt.Errorf("room not found")
}

func init() {
	roomCmd.AddCommand(roomListCmd)
	roomCmd.AddCommand(roomAddCmd)
	roomCmd.AddCommand(roomChooseCmd)
	roomCmd.AddCommand(roomThresholdCmd)
	roomCmd.AddCommand(roomDeleteCmd)

	for _, c := range []*cobra.Command{roomAddCmd, roomChooseCmd, roomThresholdCmd, roomDeleteCmd} {
		c.Flags().StringVar(&roomName, "name", "", "room name")
	}
	for _, c := range []*cobra.Command{roomChooseCmd, roomThresholdCmd, roomDeleteCmd} {
		c.Flags().StringVar(&roomID, "id", "", "room ID")
	}
	roomAddCmd.Flags().Float64Var(&roomThreshold, "threshold", 0, "alert threshold in dB")
	roomThresholdCmd.Flags().Float64Var(&roomThreshold, "threshold", 0, "alert threshold in dB")

	rootCmd.AddCommand(roomCmd)
}
