package main

import (
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	// Global configuration from environment
	apiURL := "http://localhost:8080"
	if envURL := os.Getenv("API_URL"); envURL != "" {
		apiURL = envURL
	}
	client := NewAPIClient(apiURL, os.Getenv("CRON_SECRET"), os.Getenv("SERVICE_TOKEN"))

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "scrape":
		scrapeCmd(client, args)
	case "enrich":
		enrichCmd(client, args)
	case "match":
		matchCmd(client, args)
	case "stats":
		statsCmd(client, args)
	case "sync":
		syncCmd(client)
	case "cleanup":
		cleanupCmd(client, args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`pipectl - Operations tool for the match ingestion pipeline

USAGE:
  pipectl <command> [options]

COMMANDS:
  scrape    Trigger one scrape invocation and print each region's pass result
  enrich    Synchronously enrich one match and print its scores
  match     Show a stored match and its enrichment status
  stats     Show the champion aggregate overview
  sync      Refresh the champion and item catalogs from Data Dragon
  cleanup   Delete aggregate rows outside the kept patches
  help      Show this help message

ENVIRONMENT:
  API_URL        Pipeline API URL (default: http://localhost:8080)
  CRON_SECRET    Secret for the internal endpoints (scrape, sync, cleanup)
  SERVICE_TOKEN  Bearer token for the enrich endpoint

EXAMPLES:
  # Run a scrape pass over every configured region
  pipectl scrape

  # Bootstrap an empty euw1 database from a known player
  pipectl scrape --regions=euw1 --seeds=<puuid>

  # Enrich one match and print the score table
  pipectl enrich NA1_5201776443

  # Keep only the current patches' aggregates
  pipectl cleanup --keep=14.10,14.9`)
}

func scrapeCmd(client *APIClient, args []string) {
	fs := flag.NewFlagSet("scrape", flag.ExitOnError)
	regions := fs.String("regions", "", "Comma-separated region list (default: all configured)")
	seeds := fs.String("seeds", "", "Comma-separated bootstrap PUUIDs")
	fs.Parse(args)

	fmt.Print("Triggering scrape invocation... ")
	result, err := client.TriggerScrape(splitList(*regions), splitList(*seeds))
	if err != nil {
		fmt.Printf("FAILED\n  Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("OK")
	fmt.Println()

	for _, pass := range result.Results {
		fmt.Printf("  %-5s scanned=%-4d stored=%-4d discovered=%-4d errors=%-3d stop=%s (next index %d)\n",
			pass.Region, pass.Scanned, pass.Stored, pass.Discovered, pass.Errors, pass.Reason, pass.NextIndex)
	}
	if result.Flushed > 0 {
		fmt.Printf("\nFlushed %d buffered stat contributions\n", result.Flushed)
	}

	if len(result.RecentRuns) > 0 {
		fmt.Println("\nRecent runs:")
		for _, run := range result.RecentRuns {
			fmt.Printf("  %s  %-5s %-8s stored %d of %d scanned\n",
				run.StartedAt.Format("2006-01-02 15:04:05"), run.Region, run.Status, run.Stored, run.Scanned)
		}
	}
}

func enrichCmd(client *APIClient, args []string) {
	if len(args) < 1 {
		fmt.Println("Error: match ID is required")
		fmt.Println("\nUsage: pipectl enrich <matchID>")
		os.Exit(1)
	}
	matchID := args[0]

	fmt.Printf("Enriching %s... ", matchID)
	result, err := client.EnrichMatch(matchID)
	if err != nil {
		fmt.Printf("FAILED\n  Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("OK")
	fmt.Println()

	// Highest score first; remakes sort to the bottom.
	type row struct {
		puuid string
		score ParticipantScore
	}
	rows := make([]row, 0, len(result.Scores))
	for puuid, score := range result.Scores {
		rows = append(rows, row{puuid: puuid, score: score})
	}
	sort.Slice(rows, func(i, j int) bool {
		si, sj := rows[i].score.Score, rows[j].score.Score
		if si == nil {
			return false
		}
		if sj == nil {
			return true
		}
		return *si > *sj
	})

	for _, r := range rows {
		scoreText := "  - (remake)"
		if r.score.Score != nil {
			scoreText = fmt.Sprintf("%5.2f", *r.score.Score)
		}
		fmt.Printf("  %s  champion %-4d score %s\n", r.puuid, r.score.ChampionID, scoreText)
	}
}

func matchCmd(client *APIClient, args []string) {
	if len(args) < 1 {
		fmt.Println("Error: match ID is required")
		fmt.Println("\nUsage: pipectl match <matchID>")
		os.Exit(1)
	}

	match, err := client.GetMatch(args[0])
	if err != nil {
		fmt.Printf("Failed to get match: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Match %s (%s, patch %s, queue %d)\n", match.ID, match.Region, match.Patch, match.QueueID)
	fmt.Printf("Duration %dm%02ds, remake=%t, enrichment=%s\n\n",
		match.GameDuration/60, match.GameDuration%60, match.Remake, match.Enrichment)

	for _, p := range match.Participants {
		side := "red "
		if p.TeamID == 100 {
			side = "blue"
		}
		outcome := "loss"
		if p.Win {
			outcome = "win "
		}
		scoreText := "    -"
		if p.Score != nil {
			scoreText = fmt.Sprintf("%5.2f", *p.Score)
		}
		fmt.Printf("  %s %s  %-16s %2d/%2d/%2d  score %s  %s\n",
			side, outcome, p.ChampionName, p.Kills, p.Deaths, p.Assists, scoreText, p.SummonerName)
	}
}

func statsCmd(client *APIClient, args []string) {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	patch := fs.String("patch", "", "Limit the overview to one patch")
	fs.Parse(args)

	overview, err := client.ChampionOverview(*patch)
	if err != nil {
		fmt.Printf("Failed to load overview: %v\n", err)
		os.Exit(1)
	}

	if len(overview.Champions) == 0 {
		fmt.Println("No aggregate rows yet. Run some scrape and enrich passes first.")
		return
	}

	fmt.Printf("%-16s %-7s %7s %8s %9s\n", "CHAMPION", "PATCH", "GAMES", "WINRATE", "AVGSCORE")
	for _, entry := range overview.Champions {
		name := entry.Name
		if name == "" {
			name = fmt.Sprintf("#%d", entry.ChampionID)
		}
		scoreText := "-"
		if entry.AvgScore != nil {
			scoreText = fmt.Sprintf("%.2f", *entry.AvgScore)
		}
		fmt.Printf("%-16s %-7s %7d %7.1f%% %9s\n", name, entry.Patch, entry.Games, entry.WinRate, scoreText)
	}
}

func syncCmd(client *APIClient) {
	fmt.Print("Syncing static catalogs... ")
	result, err := client.SyncStaticData()
	if err != nil {
		fmt.Printf("FAILED\n  Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("OK")
	fmt.Printf("  Version:   %s\n", result.Version)
	fmt.Printf("  Champions: %d\n", result.Champions)
	fmt.Printf("  Items:     %d\n", result.Items)
}

func cleanupCmd(client *APIClient, args []string) {
	fs := flag.NewFlagSet("cleanup", flag.ExitOnError)
	keep := fs.String("keep", "", "Comma-separated patches to keep (required)")
	fs.Parse(args)

	keepPatches := splitList(*keep)
	if len(keepPatches) == 0 {
		fmt.Println("Error: --keep is required")
		fmt.Println("\nUsage: pipectl cleanup --keep=14.10,14.9")
		os.Exit(1)
	}

	fmt.Printf("Deleting aggregates outside patches %s... ", strings.Join(keepPatches, ", "))
	deleted, err := client.CleanupStats(keepPatches)
	if err != nil {
		fmt.Printf("FAILED\n  Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("OK (%d rows)\n", deleted)
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
