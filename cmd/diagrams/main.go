// Package main generates the playlist2git architecture diagrams as Graphviz
// sources under docs/diagrams/go-diagrams.
package main

import (
	"log"
	"os"

	"github.com/blushft/go-diagrams/diagram"
	"github.com/blushft/go-diagrams/nodes/generic"
	"github.com/blushft/go-diagrams/nodes/programming"
)

func main() {
	if err := os.MkdirAll("./docs/diagrams/", 0o755); err != nil {
		log.Fatal(err)
	}
	if err := os.Chdir("./docs/diagrams/"); err != nil {
		log.Fatal(err)
	}

	if err := generateArchitectureDiagram(); err != nil {
		log.Fatal(err)
	}
	if err := generateComponentDiagram(); err != nil {
		log.Fatal(err)
	}
}

// generateArchitectureDiagram draws the external systems a sync talks to.
func generateArchitectureDiagram() error {
	d, err := diagram.New(diagram.Filename("architecture"), diagram.Label("playlist2git architecture"), diagram.Direction("LR"))
	if err != nil {
		return err
	}

	scheduler := generic.Blank.Blank(diagram.NodeLabel("Scheduler (cron)"))
	cli := programming.Language.Go(diagram.NodeLabel("playlist2git sync"))
	spotifyAPI := generic.Blank.Blank(diagram.NodeLabel("Spotify Web API"))
	tokenCache := generic.Blank.Blank(diagram.NodeLabel("Token cache"))
	workingCopy := generic.Blank.Blank(diagram.NodeLabel("Local working copy"))
	origin := generic.Blank.Blank(diagram.NodeLabel("origin remote"))
	pulls := generic.Blank.Blank(diagram.NodeLabel("GitHub pull requests"))
	sentry := generic.Blank.Blank(diagram.NodeLabel("Sentry (optional)"))

	d.Connect(scheduler, cli, diagram.Forward()).
		Connect(cli, tokenCache, diagram.Forward()).
		Connect(cli, spotifyAPI, diagram.Forward()).
		Connect(cli, workingCopy, diagram.Forward()).
		Connect(workingCopy, origin, diagram.Forward()).
		Connect(cli, pulls, diagram.Forward()).
		Connect(cli, sentry, diagram.Forward())

	return d.Render()
}

// generateComponentDiagram draws the packages and how the orchestrator uses them.
func generateComponentDiagram() error {
	d, err := diagram.New(diagram.Filename("components"), diagram.Label("playlist2git components"), diagram.Direction("TB"))
	if err != nil {
		return err
	}

	cmd := programming.Language.Go(diagram.NodeLabel("cmd/playlist2git"))
	config := programming.Language.Go(diagram.NodeLabel("pkg/config"))
	logger := programming.Language.Go(diagram.NodeLabel("pkg/logger"))
	reporting := programming.Language.Go(diagram.NodeLabel("internal/reporting"))
	snapshot := programming.Language.Go(diagram.NodeLabel("internal/snapshot"))
	spotify := programming.Language.Go(diagram.NodeLabel("internal/spotify"))
	pager := programming.Language.Go(diagram.NodeLabel("internal/pager"))
	playlist := programming.Language.Go(diagram.NodeLabel("internal/playlist"))
	vcs := programming.Language.Go(diagram.NodeLabel("internal/vcs"))
	github := programming.Language.Go(diagram.NodeLabel("internal/github"))
	search := programming.Language.Go(diagram.NodeLabel("internal/search"))

	d.Connect(cmd, config, diagram.Forward()).
		Connect(cmd, logger, diagram.Forward()).
		Connect(cmd, reporting, diagram.Forward()).
		Connect(cmd, snapshot, diagram.Forward()).
		Connect(cmd, search, diagram.Forward()).
		Connect(snapshot, spotify, diagram.Forward()).
		Connect(snapshot, vcs, diagram.Forward()).
		Connect(snapshot, github, diagram.Forward()).
		Connect(snapshot, playlist, diagram.Forward()).
		Connect(spotify, pager, diagram.Forward()).
		Connect(spotify, playlist, diagram.Forward())

	return d.Render()
}
