// Command lookup is the room code lookup service.
package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rayman-net/slideshift/internal/lobby"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Version is set at build time
var Version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("LOOKUP")
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:     "lookup",
		Short:   "Room code lookup service",
		Version: Version,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLookup(v)
		},
	}

	flags := cmd.Flags()
	flags.Int("port", 8080, "HTTP port to listen on")
	flags.Duration("ttl", 10*time.Minute, "room expiry after which a code stops resolving")

	_ = v.BindPFlag("port", flags.Lookup("port"))
	_ = v.BindPFlag("ttl", flags.Lookup("ttl"))

	return cmd
}

func runLookup(v *viper.Viper) error {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	store := lobby.NewRoomStore(v.GetDuration("ttl"))

	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			store.Cleanup()
		}
	}()

	mux := http.NewServeMux()
	mux.HandleFunc("/rooms", roomsHandler(store))
	mux.HandleFunc("/rooms/", roomHandler(store))

	addr := fmt.Sprintf(":%d", v.GetInt("port"))
	log.Info().Str("addr", addr).Msg("room lookup service listening")
	return http.ListenAndServe(addr, mux)
}

type createRoomRequest struct {
	Host       string `json:"host"`
	Name       string `json:"name"`
	MaxPlayers int    `json:"max_players"`
}

func roomsHandler(store *lobby.RoomStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req createRoomRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
			return
		}
		if req.MaxPlayers <= 0 {
			req.MaxPlayers = 4
		}

		room, err := store.Create(req.Host, req.Name, req.MaxPlayers)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusCreated, room)
	}
}

func roomHandler(store *lobby.RoomStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := strings.TrimPrefix(r.URL.Path, "/rooms/")
		if code == "" {
			http.Error(w, "missing room code", http.StatusBadRequest)
			return
		}

		switch r.Method {
		case http.MethodGet:
			room, err := store.Lookup(code)
			if err != nil {
				http.Error(w, err.Error(), http.StatusNotFound)
				return
			}
			writeJSON(w, http.StatusOK, room)
		case http.MethodDelete:
			store.Delete(code)
			w.WriteHeader(http.StatusNoContent)
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
