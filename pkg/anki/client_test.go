package anki_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/japaniel/jisho2anki/pkg/anki"
	"github.com/japaniel/jisho2anki/pkg/anki/ankitest"
)

func TestClientListsAndVersion(t *testing.T) {
	srv := ankitest.NewServer()
	defer srv.Close()
	srv.Result("version", 6)
	srv.Result("deckNames", []string{"Default", "Japanese"})
	srv.Result("modelNames", []string{"Basic", "Cloze"})
	srv.Handle("modelFieldNames", func(params json.RawMessage) (interface{}, string) {
		var p struct {
			ModelName string `json:"modelName"`
		}
		json.Unmarshal(params, &p)
		if p.ModelName != "Basic" {
			return nil, "model was not found: " + p.ModelName
		}
		return []string{"Front", "Back"}, ""
	})

	c := anki.NewClient(srv.URL, zerolog.Nop())
	ctx := context.Background()

	v, err := c.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, 6, v)
	assert.True(t, c.CheckConnection(ctx))

	decks, err := c.DeckNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Default", "Japanese"}, decks)

	models, err := c.ModelNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Basic", "Cloze"}, models)

	fields, err := c.ModelFieldNames(ctx, "Basic")
	require.NoError(t, err)
	assert.Equal(t, []string{"Front", "Back"}, fields)

	_, err = c.ModelFieldNames(ctx, "Nope")
	var apiErr *anki.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "model was not found: Nope", apiErr.Message)

	for _, call := range srv.Calls() {
		assert.Equal(t, anki.APIVersion, call.Version)
	}
}

func TestAddNote(t *testing.T) {
	srv := ankitest.NewServer()
	defer srv.Close()
	var got struct {
		Note anki.Note `json:"note"`
	}
	srv.Handle("addNote", func(params json.RawMessage) (interface{}, string) {
		json.Unmarshal(params, &got)
		return 12345, ""
	})

	c := anki.NewClient(srv.URL, zerolog.Nop())
	note := anki.Note{
		DeckName:  "Default",
		ModelName: "Basic",
		Fields:    map[string]string{"Front": "猫"},
		Options:   anki.DeckScopedOptions("Default"),
		Tags:      []string{"jisho2anki"},
	}
	id, err := c.AddNote(context.Background(), note)
	require.NoError(t, err)
	require.NotNil(t, id)
	assert.Equal(t, int64(12345), *id)
	assert.Equal(t, note, got.Note)
}

func TestAddNoteNullResult(t *testing.T) {
	srv := ankitest.NewServer()
	defer srv.Close()
	srv.Result("addNote", nil)

	id, err := anki.NewClient(srv.URL, zerolog.Nop()).AddNote(context.Background(), anki.Note{})
	require.NoError(t, err)
	assert.Nil(t, id)
}

func TestClientTransportAndParseErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not json</html>"))
	}))
	c := anki.NewClient(srv.URL, zerolog.Nop())

	_, err := c.DeckNames(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse response")

	srv.Close()
	_, err = c.DeckNames(context.Background())
	require.Error(t, err)
	var apiErr *anki.APIError
	assert.False(t, errors.As(err, &apiErr))
	assert.False(t, c.CheckConnection(context.Background()))
}

func TestDeckScopedOptionsJSON(t *testing.T) {
	b, err := json.Marshal(anki.DeckScopedOptions("Default"))
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"allowDuplicate": false,
		"duplicateScope": "deck",
		"duplicateScopeOptions": {"deckName": "Default", "checkChildren": false, "checkAllModels": false}
	}`, string(b))
}
