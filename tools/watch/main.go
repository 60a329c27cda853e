// Command watch plays an episode in mpv through the same resolution and
// player session the backend uses. It talks to the upstream catalog directly.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"anistream/config"
	"anistream/internal/mediaresolve"
	"anistream/internal/player"
	"anistream/internal/player/mpv"
	"anistream/models"
	"anistream/services/catalog"
)

func main() {
	var (
		configPath = flag.String("config", os.Getenv("ANISTREAM_CONFIG"), "path to an optional settings.json")
		animeID    = flag.String("anime", "", "anime id; plays episode -ep of it")
		episodeNo  = flag.Int("ep", 1, "episode number when -anime is set")
		episodeID  = flag.String("episode", "", "upstream episode id, e.g. one-piece-100?ep=2142")
		server     = flag.String("server", "", "streaming server (default from settings)")
		category   = flag.String("category", "", "sub, dub or raw (default from settings)")
		mpvBinary  = flag.String("mpv", "mpv", "mpv binary")
	)
	flag.Parse()

	_ = godotenv.Load()
	settings, err := config.NewManager(*configPath).Load()
	if err != nil {
		log.Fatalf("load settings: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	svc := catalog.NewService(
		catalog.NewClient(settings.Upstream.BaseURL, settings.Upstream.Timeout(), nil),
		settings.Upstream.DefaultServer,
		settings.Upstream.DefaultCategory,
	)

	var episodes []models.Episode
	if *animeID != "" {
		episodes, err = loadEpisodes(ctx, svc, *animeID)
		if err != nil {
			log.Fatalf("episodes: %v", err)
		}
		if *episodeID == "" {
			*episodeID = episodeByNumber(episodes, *episodeNo)
		}
	}
	if *episodeID == "" {
		log.Fatalf("nothing to play: pass -episode or -anime")
	}

	session := player.New(svc, &mpv.Backend{Binary: *mpvBinary}, mediaresolve.NewQualityPolicy(settings.Playback.QualityPriority))
	defer session.Dispose()

	ready := make(chan player.Transition, 4)
	session.Subscribe(func(t player.Transition) {
		fmt.Printf("[%s] %s -> %s\n", time.Now().Format("15:04:05"), t.From, t.To)
		if t.Failure != nil && t.To == player.Error {
			fmt.Printf("  %s: %s\n", t.Failure.Key, t.Failure.Message)
			fmt.Println("  try: s <server>, c <category> or r to retry")
		}
		select {
		case ready <- t:
		default:
		}
	})

	load := func(req player.Request) {
		go func() {
			if err := session.Load(ctx, req); err != nil && !errors.Is(err, player.ErrSuperseded) {
				log.Printf("[watch] load %s: %v", req.EpisodeID, err)
			}
		}()
	}
	load(player.Request{EpisodeID: *episodeID, Server: *server, Category: *category})

	lines := make(chan string)
	go func() {
		sc := bufio.NewScanner(os.Stdin)
		for sc.Scan() {
			lines <- strings.TrimSpace(sc.Text())
		}
		close(lines)
	}()

	printHelp()
	for {
		select {
		case <-ctx.Done():
			return
		case t := <-ready:
			// start playing as soon as a fresh load is accepted; quality
			// switches restore their own play state
			if t.From == player.Loading && t.To == player.Ready {
				if sel := session.Snapshot().Selection; sel != nil && sel.ResumeTime != nil {
					continue
				}
				if err := session.Play(); err != nil {
					log.Printf("[watch] play: %v", err)
				}
			}
		case line, ok := <-lines:
			if !ok {
				return
			}
			if quit := handleCommand(ctx, session, line, episodes, load); quit {
				return
			}
		}
	}
}

func handleCommand(ctx context.Context, s *player.Session, line string, episodes []models.Episode, load func(player.Request)) bool {
	cmd, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)
	snap := s.Snapshot()

	switch cmd {
	case "q", "quit":
		return true
	case "p":
		if snap.State == player.Playing {
			report(s.Pause())
		} else {
			report(s.Play())
		}
	case "s":
		go func() { quiet(s.SwitchServer(ctx, arg)) }()
	case "c":
		go func() { quiet(s.SwitchCategory(ctx, arg)) }()
	case "r":
		go func() { quiet(s.Retry(ctx)) }()
	case "v":
		idx, err := strconv.Atoi(arg)
		if err != nil {
			fmt.Println("usage: v <index>")
			break
		}
		report(s.SwitchQuality(idx))
	case "l":
		if snap.Sources == nil {
			fmt.Println("no sources loaded")
			break
		}
		for i, src := range snap.Sources.Sources {
			marker := " "
			if snap.Selection != nil && snap.Selection.SourceIndex == i {
				marker = "*"
			}
			fmt.Printf("%s %d  %-8s %s\n", marker, i, orDash(src.Quality), src.URL)
		}
	case "n":
		next := nextEpisode(episodes, snap.Request.EpisodeID)
		if next == "" {
			fmt.Println("no next episode")
			break
		}
		load(player.Request{EpisodeID: next, Server: snap.Request.Server, Category: snap.Request.Category})
	case "i":
		out, _ := json.MarshalIndent(snap, "", "  ")
		fmt.Println(string(out))
	default:
		printHelp()
	}
	return false
}

func loadEpisodes(ctx context.Context, svc *catalog.Service, animeID string) ([]models.Episode, error) {
	raw, err := svc.GetEpisodeList(ctx, animeID)
	if err != nil {
		return nil, err
	}
	var list models.EpisodeList
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, err
	}
	return list.Episodes, nil
}

func episodeByNumber(episodes []models.Episode, n int) string {
	for _, ep := range episodes {
		if ep.Number == n {
			return ep.EpisodeID
		}
	}
	return ""
}

func nextEpisode(episodes []models.Episode, current string) string {
	for i, ep := range episodes {
		if ep.EpisodeID == current && i+1 < len(episodes) {
			return episodes[i+1].EpisodeID
		}
	}
	return ""
}

func report(err error) {
	if err != nil {
		fmt.Println("error:", err)
	}
}

// quiet reports errors except supersession, which is expected when the user
// switches again before a load finishes.
func quiet(err error) {
	if err != nil && !errors.Is(err, player.ErrSuperseded) {
		report(err)
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func printHelp() {
	fmt.Println("commands: p play/pause | v <i> quality | l list sources | s <server> | c <sub|dub|raw> | r retry | n next | i info | q quit")
}
