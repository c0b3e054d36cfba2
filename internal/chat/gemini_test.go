package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/travel-agency-booking/internal/model"
)

func TestBuildPrompt(t *testing.T) {
	discount := int64(80000)
	tours := []model.Tour{
		{Title: "Goa Beaches", Slug: "goa-beaches", LocationCity: "Goa", LocationCountry: "India",
			Category: "WEEKEND", DurationDays: 3, BasePrice: 100000, DiscountPrice: &discount,
			MaxGroupSize: 12, Description: strings.Repeat("a", 200)},
	}
	var history []Turn
	for i := 0; i < 12; i++ {
		history = append(history, Turn{Role: "user", Content: fmt.Sprintf("q%d", i)})
	}

	p := BuildPrompt(tours, "INR", history, "Any beach trips?")

	assert.True(t, strings.HasPrefix(p, "You are a helpful travel assistant for GoFly Travel Agency."))
	assert.Contains(t, p, "- Goa Beaches (Goa, India)")
	assert.Contains(t, p, "Price: INR 800.00 (was INR 1,000.00)")
	assert.Contains(t, p, "Max Group Size: 12")
	assert.Contains(t, p, "Description: "+strings.Repeat("a", 150)+"...\n")
	assert.Contains(t, p, "View at: /tours/goa-beaches")
	assert.NotContains(t, p, "User: q1\n", "only the last ten turns are kept")
	assert.Contains(t, p, "User: q2\n")
	assert.True(t, strings.HasSuffix(p, "User: Any beach trips?"))
}

func TestBuildPrompt_NoTours(t *testing.T) {
	p := BuildPrompt(nil, "INR", []Turn{{Role: "assistant", Content: "Hi!"}}, "hello")
	assert.Contains(t, p, "No tours currently available.")
	assert.Contains(t, p, "Assistant: Hi!")
}

func TestGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/gemini-2.0-flash:generateContent", r.URL.Path)
		assert.Equal(t, "k", r.URL.Query().Get("key"))
		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, 0.7, req.GenerationConfig.Temperature)
		assert.Equal(t, 40, req.GenerationConfig.TopK)
		assert.Equal(t, 1024, req.GenerationConfig.MaxOutputTokens)
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"Try Goa!"}]}}]}`))
	}))
	defer srv.Close()

	reply, err := NewClient().WithBase(srv.URL).Generate(context.Background(), " k ", "prompt")
	require.NoError(t, err)
	assert.Equal(t, "Try Goa!", reply)
}

func TestGenerate_Errors(t *testing.T) {
	_, err := NewClient().Generate(context.Background(), "  ", "prompt")
	assert.ErrorIs(t, err, ErrNotConfigured)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("key") == "bad" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":{"message":"API key not valid"}}`))
			return
		}
		_, _ = w.Write([]byte(`{"candidates":[]}`))
	}))
	defer srv.Close()

	_, err = NewClient().WithBase(srv.URL).Generate(context.Background(), "bad", "prompt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key not valid")

	_, err = NewClient().WithBase(srv.URL).Generate(context.Background(), "good", "prompt")
	assert.ErrorIs(t, err, ErrEmptyReply)
}
