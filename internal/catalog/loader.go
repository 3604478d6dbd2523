package catalog

import (
	"embed"
	"encoding/csv"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"
)

//go:embed data/*.csv
var embeddedData embed.FS

const (
	domainsFile   = "domains.csv"
	variablesFile = "variables.csv"
	codelistsFile = "codelists.csv"
	termsFile     = "terms.csv"
)

// Load builds a Catalog from the binary's embedded standards tables.
func Load() (*Catalog, error) {
	return loadFromFS(embeddedData, "data")
}

// LoadFromDir builds a Catalog from a directory on disk, honoring the
// *_STANDARDS_DIR override described in spec §6. The directory must
// contain domains.csv, variables.csv, codelists.csv, and terms.csv.
func LoadFromDir(dir string) (*Catalog, error) {
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return nil, &DirectoryNotFoundError{Path: dir}
	}
	return loadFromFS(os.DirFS(dir), ".")
}

func loadFromFS(fsys fs.FS, root string) (*Catalog, error) {
	domains, err := loadDomains(fsys, root)
	if err != nil {
		return nil, err
	}
	variables, err := loadVariables(fsys, root)
	if err != nil {
		return nil, err
	}
	codelists, err := loadCodelists(fsys, root)
	if err != nil {
		return nil, err
	}
	terms, err := loadTerms(fsys, root)
	if err != nil {
		return nil, err
	}

	for code := range codelists {
		cl := codelists[code]
		cl.Terms = terms[code]
		codelists[code] = cl
	}

	byName := make(map[string]*Domain, len(domains))
	order := make([]string, 0, len(domains))
	for _, d := range domains {
		d := d
		d.Variables = variables[d.Name]
		byName[strings.ToUpper(d.Name)] = &d
		order = append(order, strings.ToUpper(d.Name))
	}

	clByCode := make(map[string]*Codelist, len(codelists))
	clOrder := make([]string, 0, len(codelists))
	for code, cl := range codelists {
		cl := cl
		clByCode[strings.ToUpper(code)] = &cl
		clOrder = append(clOrder, strings.ToUpper(code))
	}

	return &Catalog{
		domains:       byName,
		domainOrder:   order,
		codelists:     clByCode,
		codelistOrder: clOrder,
	}, nil
}

func openCSV(fsys fs.FS, root, name string) ([][]string, error) {
	path := name
	if root != "" && root != "." {
		path = root + "/" + name
	}
	f, err := fsys.Open(path)
	if err != nil {
		return nil, &FileNotFoundError{File: name}
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true
	records, err := r.ReadAll()
	if err != nil && err != io.EOF {
		return nil, &CsvReadError{File: name, Err: err}
	}
	if len(records) == 0 {
		return nil, &CsvReadError{File: name, Err: io.ErrUnexpectedEOF}
	}
	return records[1:], nil // drop header row
}

func loadDomains(fsys fs.FS, root string) ([]Domain, error) {
	rows, err := openCSV(fsys, root, domainsFile)
	if err != nil {
		return nil, err
	}
	out := make([]Domain, 0, len(rows))
	for _, row := range rows {
		if len(row) < 3 {
			continue
		}
		name := strings.ToUpper(strings.TrimSpace(row[0]))
		if l := len(name); l < 2 || l > 4 {
			return nil, &InvalidValueError{Field: "name", Value: row[0], File: domainsFile}
		}
		out = append(out, Domain{
			Name:  name,
			Label: strings.TrimSpace(row[1]),
			Class: Class(strings.TrimSpace(row[2])),
		})
	}
	return out, nil
}

func loadVariables(fsys fs.FS, root string) (map[string][]Variable, error) {
	rows, err := openCSV(fsys, root, variablesFile)
	if err != nil {
		return nil, err
	}
	out := make(map[string][]Variable)
	for _, row := range rows {
		if len(row) < 9 {
			return nil, &InvalidValueError{Field: "row", Value: strings.Join(row, ","), File: variablesFile}
		}
		domain := strings.ToUpper(strings.TrimSpace(row[0]))
		name := strings.TrimSpace(row[1])
		if name == "" {
			return nil, &InvalidValueError{Field: "name", Value: name, File: variablesFile}
		}
		dt := DataType(strings.TrimSpace(row[3]))
		if dt != Character && dt != Numeric {
			return nil, &InvalidValueError{Field: "data_type", Value: row[3], File: variablesFile}
		}

		var length int
		if l := strings.TrimSpace(row[4]); l != "" && dt == Character {
			n, err := strconv.Atoi(l)
			if err != nil || n <= 0 {
				return nil, &InvalidValueError{Field: "length", Value: row[4], File: variablesFile}
			}
			length = n
		}

		var role Role
		hasRole := strings.TrimSpace(row[5]) != ""
		if hasRole {
			role = Role(strings.TrimSpace(row[5]))
		}

		var core Core
		hasCore := strings.TrimSpace(row[6]) != ""
		if hasCore {
			core = Core(strings.TrimSpace(row[6]))
		}

		order := 0
		if o := strings.TrimSpace(row[8]); o != "" {
			n, err := strconv.Atoi(o)
			if err != nil || n <= 0 {
				return nil, &InvalidValueError{Field: "order", Value: row[8], File: variablesFile}
			}
			order = n
		}

		out[domain] = append(out[domain], Variable{
			Name:         name,
			Label:        strings.TrimSpace(row[2]),
			DataType:     dt,
			Length:       length,
			Role:         role,
			HasRole:      hasRole,
			Core:         core,
			HasCore:      hasCore,
			CodelistCode: strings.ToUpper(strings.TrimSpace(row[7])),
			Order:        order,
		})
	}
	return out, nil
}

func loadCodelists(fsys fs.FS, root string) (map[string]Codelist, error) {
	rows, err := openCSV(fsys, root, codelistsFile)
	if err != nil {
		return nil, err
	}
	out := make(map[string]Codelist, len(rows))
	for _, row := range rows {
		if len(row) < 3 {
			continue
		}
		code := strings.ToUpper(strings.TrimSpace(row[0]))
		ext, err := strconv.ParseBool(strings.TrimSpace(row[2]))
		if err != nil {
			return nil, &InvalidValueError{Field: "extensible", Value: row[2], File: codelistsFile}
		}
		out[code] = Codelist{
			Code:       code,
			Name:       strings.TrimSpace(row[1]),
			Extensible: ext,
		}
	}
	return out, nil
}

func loadTerms(fsys fs.FS, root string) (map[string][]Term, error) {
	rows, err := openCSV(fsys, root, termsFile)
	if err != nil {
		return nil, err
	}
	out := make(map[string][]Term)
	seen := make(map[string]map[string]bool)
	for _, row := range rows {
		if len(row) < 2 {
			continue
		}
		code := strings.ToUpper(strings.TrimSpace(row[0]))
		sub := strings.TrimSpace(row[1])
		if sub == "" {
			return nil, &InvalidValueError{Field: "submission_value", Value: sub, File: termsFile}
		}
		if seen[code] == nil {
			seen[code] = make(map[string]bool)
		}
		key := strings.ToLower(sub)
		if seen[code][key] {
			return nil, &InvalidValueError{Field: "submission_value", Value: sub, File: termsFile}
		}
		seen[code][key] = true

		var synonyms []string
		if len(row) > 2 && strings.TrimSpace(row[2]) != "" {
			for _, s := range strings.Split(row[2], "|") {
				s = strings.TrimSpace(s)
				if s != "" {
					synonyms = append(synonyms, s)
				}
			}
		}
		out[code] = append(out[code], Term{SubmissionValue: sub, Synonyms: synonyms})
	}
	return out, nil
}
