package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wastebuster/wastebuster/internal/domain"
	"github.com/wastebuster/wastebuster/internal/pipeline"
	"github.com/wastebuster/wastebuster/internal/service"
)

// loadApp wires the app and loads only the named collections.
func loadApp(ctx context.Context, collections ...string) (*app, error) {
	a, err := newApp(ctx)
	if err != nil {
		return nil, err
	}
	if err := a.service.Load(ctx, collections...); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func savedMark(saved bool) string {
	if saved {
		return "*"
	}
	return " "
}

func ideasCmd() *cobra.Command {
	var category, query string
	cmd := &cobra.Command{
		Use:   "ideas",
		Short: "List upcycling ideas",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a, err := loadApp(ctx, service.CollectionIdeas)
			if err != nil {
				return err
			}
			defer a.Close()

			ideas := a.service.ListIdeas(pipeline.Criteria{Category: category, SearchText: query})
			return printIdeas(cmd.OutOrStdout(), ideas)
		},
	}
	cmd.Flags().StringVar(&category, "category", pipeline.CategoryAll,
		"Category: "+strings.Join(pipeline.IdeaCategories(), ", "))
	cmd.Flags().StringVarP(&query, "query", "q", "", "Text to search for")
	return cmd
}

func printIdeas(w io.Writer, ideas []service.IdeaCard) error {
	if len(ideas) == 0 {
		_, err := fmt.Fprintln(w, "No ideas found.")
		return err
	}
	for _, idea := range ideas {
		if _, err := fmt.Fprintf(w, "%s %-6s %s (%s)\n    %s\n",
			savedMark(idea.Saved), idea.ID, idea.Name, idea.Category, idea.DisplayURL); err != nil {
			return err
		}
	}
	return nil
}

func eventsCmd() *cobra.Command {
	var liked bool
	cmd := &cobra.Command{
		Use:   "events",
		Short: "List upcoming events",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a, err := loadApp(ctx, service.CollectionEvents)
			if err != nil {
				return err
			}
			defer a.Close()

			return printEvents(cmd.OutOrStdout(), a.service.ListEvents(liked))
		},
	}
	cmd.Flags().BoolVar(&liked, "liked", false, "Only show liked events")
	return cmd
}

func printEvents(w io.Writer, b pipeline.EventBuckets) error {
	sections := []struct {
		title  string
		events []pipeline.ScheduledEvent
	}{
		{"Upcoming", b.Upcoming},
		{"Other events", b.Other},
	}
	for _, sec := range sections {
		if _, err := fmt.Fprintf(w, "%s:\n", sec.title); err != nil {
			return err
		}
		if len(sec.events) == 0 {
			if _, err := fmt.Fprintln(w, "  none"); err != nil {
				return err
			}
			continue
		}
		for _, e := range sec.events {
			if _, err := fmt.Fprintf(w, "%s %-6s %s  %s  %s\n",
				savedMark(e.Saved), e.ID, e.Start.Format("Mon Jan 2 15:04"), e.Name, e.Location); err != nil {
				return err
			}
		}
	}
	return nil
}

func placesCmd() *cobra.Command {
	var category, query string
	var types []string
	var lat, lon float64
	cmd := &cobra.Command{
		Use:   "places",
		Short: "List places for a material category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var kws []domain.Keyword
			for _, t := range types {
				kw := domain.ParseKeyword(t)
				if kw == domain.KeywordUnknown {
					return fmt.Errorf("unknown place type %q", t)
				}
				kws = append(kws, kw)
			}
			var pos *pipeline.Position
			if cmd.Flags().Changed("lat") && cmd.Flags().Changed("lon") {
				pos = &pipeline.Position{Latitude: lat, Longitude: lon}
			}

			ctx := context.Background()
			a, err := loadApp(ctx, service.CollectionPlaces)
			if err != nil {
				return err
			}
			defer a.Close()

			view := a.service.MapView(category, pipeline.MarkerFilter{Query: query, Types: kws}, pos)
			return printPlaces(cmd.OutOrStdout(), view)
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "Material category")
	cmd.Flags().StringVarP(&query, "query", "q", "", "Text to search for in the organization or type")
	cmd.Flags().StringSliceVar(&types, "type", nil, "Place types to keep (repeatable)")
	cmd.Flags().Float64Var(&lat, "lat", 0, "Your latitude")
	cmd.Flags().Float64Var(&lon, "lon", 0, "Your longitude")
	return cmd
}

func printPlaces(w io.Writer, view service.MapView) error {
	shown := 0
	for _, m := range view.Markers {
		if !m.Visible {
			continue
		}
		shown++
		if _, err := fmt.Fprintf(w, "%-10s %s\n    %s  (%.5f, %.5f)\n",
			m.Keyword, m.Place.Organization, m.Place.DisplayAddress(), m.Latitude, m.Longitude); err != nil {
			return err
		}
	}
	if shown == 0 {
		_, err := fmt.Fprintln(w, "No places found.")
		return err
	}
	return nil
}

func categoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "categories [query]",
		Short: "Search material categories by name or item",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := ""
			if len(args) == 1 {
				query = args[0]
			}
			ctx := context.Background()
			a, err := loadApp(ctx, service.CollectionCategories)
			if err != nil {
				return err
			}
			defer a.Close()

			w := cmd.OutOrStdout()
			cats := a.service.SearchCategories(query)
			if len(cats) == 0 {
				_, err := fmt.Fprintln(w, "No categories found.")
				return err
			}
			for _, c := range cats {
				if _, err := fmt.Fprintf(w, "%s: %s\n", c.Name, strings.Join(c.Associated, ", ")); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func savedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "saved",
		Short: "List or toggle liked events and saved ideas",
	}
	cmd.AddCommand(savedListCmd())
	cmd.AddCommand(savedToggleCmd())
	return cmd
}

func savedListCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "list <events|ideas>",
		Short:     "Print saved IDs",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{service.CollectionEvents, service.CollectionIdeas},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()
			a.service.LoadSaved(ctx)

			ids, err := a.service.SavedIDs(args[0])
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			for _, id := range ids {
				if _, err := fmt.Fprintln(w, id); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func savedToggleCmd() *cobra.Command {
	var asString bool
	cmd := &cobra.Command{
		Use:   "toggle <events|ideas> <id>",
		Short: "Save an item if it is not saved, otherwise remove it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := domain.ParseItemID(strings.TrimSpace(args[1]))
			if asString {
				id = domain.StringID(strings.TrimSpace(args[1]))
			}

			ctx := context.Background()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()
			a.service.LoadSaved(ctx)

			saved, err := a.service.ToggleSaved(ctx, args[0], id)
			if err != nil {
				return err
			}
			state := "removed"
			if saved {
				state = "saved"
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", id, state)
			return err
		},
	}
	cmd.Flags().BoolVar(&asString, "string", false, "Treat a numeric-looking id as a string id")
	return cmd
}
