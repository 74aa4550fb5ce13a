package examples

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/sqler/sqler/internal/llm"
)

func TestParseList(t *testing.T) {
	text := "Voici les questions :\n\n1. Quels sont nos 5 produits les plus vendus ?\n2) Où sont situés nos bureaux ?\n- Combien de commandes en 2005 ?\n  \n"
	got := ParseList(text)
	want := []string{
		"Quels sont nos 5 produits les plus vendus ?",
		"Où sont situés nos bureaux ?",
		"Combien de commandes en 2005 ?",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ParseList() = %#v, want %#v", got, want)
	}
}

func TestParseListWithoutMarkersKeepsLines(t *testing.T) {
	got := ParseList("What is the turnover in 2004?\nWho are our best customers?")
	if len(got) != 2 || got[1] != "Who are our best customers?" {
		t.Fatalf("ParseList() = %#v", got)
	}
	if got := ParseList(" \n\n"); len(got) != 0 {
		t.Fatalf("ParseList(blank) = %#v", got)
	}
}

func TestExamplesGeneratesAndTranslates(t *testing.T) {
	var requests []llm.Request
	client := llm.ClientFunc(func(_ context.Context, req llm.Request) (llm.Response, error) {
		requests = append(requests, req)
		if req.Purpose == "translate" {
			return llm.Response{Text: "1. Who are our top clients?\n2. Which offices sell most?"}, nil
		}
		return llm.Response{Text: "1. Qui sont nos meilleurs clients ?\n2. Quels bureaux vendent le plus ?"}, nil
	})

	gen := &Generator{Client: client, Model: "m"}
	set := gen.Examples(context.Background(), "Table: customers\n")
	if !set.Generated {
		t.Fatal("Generated = false, want true")
	}
	if set.French[0] != "Qui sont nos meilleurs clients ?" || set.English[1] != "Which offices sell most?" {
		t.Fatalf("unexpected set: %+v", set)
	}

	if len(requests) != 2 {
		t.Fatalf("requests = %d, want 2", len(requests))
	}
	gen0, tr := requests[0], requests[1]
	if gen0.Temperature != GenerationTemperature || gen0.MaxTokens != DefaultMaxTokens {
		t.Fatalf("generation request = %+v", gen0)
	}
	if !strings.Contains(gen0.System, "Table: customers") || !strings.Contains(gen0.System, "base de données MySQL") {
		t.Fatalf("generation prompt missing schema or dialect:\n%s", gen0.System)
	}
	if tr.Temperature != TranslationTemperature {
		t.Fatalf("translation temperature = %v", tr.Temperature)
	}
	if !strings.Contains(tr.System, "Qui sont nos meilleurs clients ?\nQuels bureaux vendent le plus ?") {
		t.Fatalf("translation prompt missing questions:\n%s", tr.System)
	}
}

func TestExamplesFallsBackOnFailure(t *testing.T) {
	client := llm.ClientFunc(func(context.Context, llm.Request) (llm.Response, error) {
		return llm.Response{}, errors.New("network down")
	})
	set := (&Generator{Client: client}).Examples(context.Background(), "schema")
	if set.Generated {
		t.Fatal("Generated = true, want false")
	}
	if !reflect.DeepEqual(set.French, FallbackFrench) || !reflect.DeepEqual(set.English, FallbackEnglish) {
		t.Fatalf("unexpected fallback set: %+v", set)
	}
}

func TestExamplesFallsBackOnEmptyAnswer(t *testing.T) {
	client := llm.ClientFunc(func(_ context.Context, req llm.Request) (llm.Response, error) {
		if req.Purpose == "examples" {
			return llm.Response{Text: "   "}, nil
		}
		return llm.Response{Text: "1. Translated"}, nil
	})
	set := (&Generator{Client: client}).Examples(context.Background(), "schema")
	if !reflect.DeepEqual(set.French, FallbackFrench) {
		t.Fatalf("French = %#v, want fallback", set.French)
	}
	if len(set.English) != 1 || set.English[0] != "Translated" {
		t.Fatalf("English = %#v", set.English)
	}
}

func TestFallbackReturnsCopies(t *testing.T) {
	set := Fallback()
	set.French[0] = "changed"
	if FallbackFrench[0] == "changed" {
		t.Fatal("Fallback() shares the package slice")
	}
}
