package ingest

import (
	"context"
	"fmt"
	"strconv"

	"golang.org/x/oauth2"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/rubentalstra/trial-submission-studio/internal/gsheetutils"
	"github.com/rubentalstra/trial-submission-studio/internal/scoring"
)

// GoogleSheetSource fetches one sheet/tab of a Google Sheets document
// via the Sheets API, grounded on internal/gsheetutils (URL/gid
// parsing) plus golang.org/x/oauth2 and
// google.golang.org/api/sheets/v4 for the authenticated fetch.
type GoogleSheetSource struct {
	url             string
	gid             string
	credentialsFile string // service-account JSON; empty with accessToken set uses OAuth
	accessToken     string // short-lived OAuth token for a private, user-authorized sheet
}

// NewGoogleSheetSource builds a source for the given share URL. gid
// selects the tab; empty uses whatever gid the URL itself carries (or
// the first tab if neither is present). Exactly one of
// credentialsFile/accessToken should be set; an empty accessToken with
// a non-empty credentialsFile authenticates as the service account.
func NewGoogleSheetSource(url, gid, credentialsFile, accessToken string) *GoogleSheetSource {
	return &GoogleSheetSource{url: url, gid: gid, credentialsFile: credentialsFile, accessToken: accessToken}
}

func (s *GoogleSheetSource) Load() ([]string, []string, [][]string, map[string]scoring.ColumnHint, error) {
	sheetID, urlGID, ok := gsheetutils.ParseGoogleSheetURL(s.url)
	if !ok {
		return nil, nil, nil, nil, fmt.Errorf("ingest: not a recognizable Google Sheets URL: %s", s.url)
	}
	gid := gsheetutils.SelectGID(s.gid, urlGID)
	if err := gsheetutils.ValidateGID(gid); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("ingest: %w", err)
	}

	ctx := context.Background()
	svc, err := s.sheetsService(ctx)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	sheetRange, err := resolveSheetRange(ctx, svc, sheetID, gid)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	resp, err := svc.Spreadsheets.Values.Get(sheetID, sheetRange).Context(ctx).Do()
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("ingest: fetch sheet %q: %w", sheetID, err)
	}
	if len(resp.Values) == 0 {
		return nil, nil, nil, nil, nil
	}

	headers := dedupeHeaders(sanitizeRow(toStrings(resp.Values[0])))
	rows := make([][]string, 0, len(resp.Values)-1)
	for _, r := range resp.Values[1:] {
		rows = append(rows, sanitizeRow(padRow(toStrings(r), len(headers))))
	}
	labels := make([]string, len(headers))
	hints := ComputeHints(headers, labels, rows)
	return headers, labels, rows, hints, nil
}

// sheetsService authenticates with a service-account credentials file
// when one is configured, an OAuth access token for a private
// user-authorized sheet, or falls back to an unauthenticated client
// for public sheets.
func (s *GoogleSheetSource) sheetsService(ctx context.Context) (*sheets.Service, error) {
	switch {
	case s.credentialsFile != "":
		svc, err := sheets.NewService(ctx,
			option.WithCredentialsFile(s.credentialsFile),
			option.WithScopes(sheets.SpreadsheetsReadonlyScope))
		if err != nil {
			return nil, fmt.Errorf("ingest: sheets client (credentials file): %w", err)
		}
		return svc, nil
	case s.accessToken != "":
		client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: s.accessToken}))
		svc, err := sheets.NewService(ctx, option.WithHTTPClient(client))
		if err != nil {
			return nil, fmt.Errorf("ingest: sheets client (oauth token): %w", err)
		}
		return svc, nil
	default:
		svc, err := sheets.NewService(ctx, option.WithoutAuthentication())
		if err != nil {
			return nil, fmt.Errorf("ingest: sheets client (public): %w", err)
		}
		return svc, nil
	}
}

// resolveSheetRange maps a numeric gid to its sheet title (gid 0/empty
// uses the first sheet). The Sheets API range syntax addresses a whole
// tab by title, not by gid.
func resolveSheetRange(ctx context.Context, svc *sheets.Service, sheetID, gid string) (string, error) {
	meta, err := svc.Spreadsheets.Get(sheetID).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("ingest: fetch spreadsheet metadata: %w", err)
	}
	if len(meta.Sheets) == 0 {
		return "", fmt.Errorf("ingest: spreadsheet %q has no sheets", sheetID)
	}

	wantGID := int64(-1)
	if gid != "" {
		parsed, err := strconv.ParseInt(gid, 10, 64)
		if err != nil {
			return "", fmt.Errorf("ingest: invalid gid %q: %w", gid, err)
		}
		wantGID = parsed
	}

	for _, sh := range meta.Sheets {
		if wantGID < 0 || sh.Properties.SheetId == wantGID {
			return sh.Properties.Title, nil
		}
	}
	return meta.Sheets[0].Properties.Title, nil
}

func toStrings(row []interface{}) []string {
	out := make([]string, len(row))
	for i, c := range row {
		out[i] = fmt.Sprintf("%v", c)
	}
	return out
}

func padRow(row []string, width int) []string {
	for len(row) < width {
		row = append(row, "")
	}
	return row
}
