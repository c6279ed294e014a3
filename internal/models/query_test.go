package models

import (
	"errors"
	"testing"

	"github.com/hyperjump/kotae/internal/failure"
)

func TestAskRequest_Validate(t *testing.T) {
	tests := []struct {
		name         string
		req          *AskRequest
		wantErr      bool
		wantRetrieve int
		wantRerank   int
	}{
		{"empty query", &AskRequest{Query: ""}, true, 0, 0},
		{"whitespace query", &AskRequest{Query: "  \n "}, true, 0, 0},
		{"negative k", &AskRequest{Query: "x", RetrieveK: -1}, true, 0, 0},
		{"defaults applied", &AskRequest{Query: "x"}, false, 5, 3},
		{"explicit values kept", &AskRequest{Query: "x", RetrieveK: 8, RerankK: 2}, false, 8, 2},
		{"capped at max", &AskRequest{Query: "x", RetrieveK: 500, RerankK: 200}, false, MaxTopK, MaxTopK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate(5, 3)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if tt.req.RetrieveK != tt.wantRetrieve || tt.req.RerankK != tt.wantRerank {
				t.Errorf("got retrieve_k=%d rerank_k=%d, want %d/%d",
					tt.req.RetrieveK, tt.req.RerankK, tt.wantRetrieve, tt.wantRerank)
			}
		})
	}
}

func TestAskRequest_ValidateTrims(t *testing.T) {
	req := &AskRequest{Query: "  capital of France?  "}
	if err := req.Validate(5, 3); err != nil {
		t.Fatal(err)
	}
	if req.Query != "capital of France?" {
		t.Errorf("query = %q", req.Query)
	}
}

func TestAskRequest_ValidateErrorsAreInputErrors(t *testing.T) {
	err := (&AskRequest{Query: " "}).Validate(5, 3)
	if !failure.IsInput(err) || !errors.Is(err, failure.ErrEmptyQuery) {
		t.Errorf("empty query: got %v", err)
	}
	err = (&AskRequest{Query: "x", RerankK: -2}).Validate(5, 3)
	if !errors.Is(err, failure.ErrInvalidTopK) {
		t.Errorf("negative k: got %v", err)
	}
}

func TestRetrieveRequest_Validate(t *testing.T) {
	tests := []struct {
		req     RetrieveRequest
		wantErr bool
		wantK   int
	}{
		{RetrieveRequest{Query: ""}, true, 0},
		{RetrieveRequest{Query: "q", K: -1}, true, 0},
		{RetrieveRequest{Query: "q"}, false, 5},
		{RetrieveRequest{Query: "q", K: 7}, false, 7},
		{RetrieveRequest{Query: "q", K: 1000}, false, MaxTopK},
	}
	for _, tt := range tests {
		err := tt.req.Validate(5)
		if (err != nil) != tt.wantErr {
			t.Fatalf("Validate(%+v) error = %v, wantErr %v", tt.req, err, tt.wantErr)
		}
		if !tt.wantErr && tt.req.K != tt.wantK {
			t.Errorf("Validate(%+v): k=%d, want %d", tt.req, tt.req.K, tt.wantK)
		}
	}
}
