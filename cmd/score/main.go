package main

import (
	"context"
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	backend "stage-backend/internal/api"
	"stage-backend/internal/core"
	"stage-backend/pkg/api"
	"stage-backend/pkg/client"

	"github.com/schollz/progressbar/v3"
)

type row struct {
	record  []string
	request api.PredictRequest
}

func parseRow(record []string, columns map[string]int) (api.PredictRequest, error) {
	values := make(map[string]float64, len(columns))
	for name, idx := range columns {
		if idx >= len(record) {
			return api.PredictRequest{}, fmt.Errorf("missing column %s", name)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(record[idx]), 64)
		if err != nil {
			return api.PredictRequest{}, fmt.Errorf("invalid value for %s: %q", name, record[idx])
		}
		values[name] = v
	}

	return api.PredictRequest{
		Edad:               values[core.FieldEdad],
		Estatura:           values[core.FieldEstatura],
		Peso:               values[core.FieldPeso],
		DosisQuimioterapia: values[core.FieldDosisQuimioterapia],
	}, nil
}

func headerColumns(header []string) (map[string]int, error) {
	positions := make(map[string]int, len(header))
	for i, name := range header {
		positions[strings.TrimSpace(name)] = i
	}

	columns := make(map[string]int)
	var missing []string
	for _, field := range core.RequiredFields() {
		idx, ok := positions[field]
		if !ok {
			missing = append(missing, field)
			continue
		}
		columns[field] = idx
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("input csv is missing columns: %s", strings.Join(missing, ", "))
	}
	return columns, nil
}

func readRows(r io.Reader) ([]string, []row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("error reading csv header: %w", err)
	}

	columns, err := headerColumns(header)
	if err != nil {
		return nil, nil, err
	}

	var rows []row
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("error reading csv line %d: %w", line, err)
		}
		req, err := parseRow(record, columns)
		if err != nil {
			return nil, nil, fmt.Errorf("line %d: %w", line, err)
		}
		rows = append(rows, row{record: record, request: req})
	}

	return header, rows, nil
}

func score(ctx context.Context, c *client.Client, rows []row, size int) ([]string, error) {
	labels := make([]string, 0, len(rows))

	bar := progressbar.Default(int64(len(rows)), "scoring")
	for start := 0; start < len(rows); start += size {
		end := min(start+size, len(rows))

		reqs := make([]api.PredictRequest, 0, end-start)
		for _, r := range rows[start:end] {
			reqs = append(reqs, r.request)
		}

		preds, err := c.PredictBatch(ctx, reqs)
		if err != nil {
			return nil, fmt.Errorf("error scoring rows %d-%d: %w", start, end-1, err)
		}
		for _, p := range preds {
			if p.Error != "" {
				labels = append(labels, "error: "+p.Error)
			} else {
				labels = append(labels, p.PredictedClass)
			}
		}
		_ = bar.Add(end - start)
	}
	_ = bar.Finish()

	return labels, nil
}

// batchSize caps the requested rows per call at what /predict/batch accepts.
func batchSize(requested int) (int, error) {
	if requested <= 0 {
		return 0, fmt.Errorf("-batch must be positive, got %d", requested)
	}
	if requested > backend.MaxBatchSize {
		log.Printf("-batch %d exceeds the server limit, using %d", requested, backend.MaxBatchSize)
		return backend.MaxBatchSize, nil
	}
	return requested, nil
}

func main() {
	endpoint := flag.String("endpoint", "http://localhost:5000", "prediction service url")
	input := flag.String("input", "", "csv file with edad,estatura,peso,dosis_quimioterapia columns")
	output := flag.String("output", "", "output csv file (stdout if empty)")
	batch := flag.Int("batch", backend.MaxBatchSize, "rows per request")
	timeout := flag.Duration("timeout", 10*time.Minute, "overall timeout")
	flag.Parse()

	if *input == "" {
		log.Fatalf("-input is required")
	}
	rowsPerRequest, err := batchSize(*batch)
	if err != nil {
		log.Fatalf("%v", err)
	}

	in, err := os.Open(*input)
	if err != nil {
		log.Fatalf("error opening input: %v", err)
	}
	defer in.Close()

	header, rows, err := readRows(in)
	if err != nil {
		log.Fatalf("error reading input: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	c := client.New(*endpoint)
	if _, err := c.Health(ctx); err != nil {
		log.Fatalf("prediction service is not reachable at %s: %v", *endpoint, err)
	}

	labels, err := score(ctx, c, rows, rowsPerRequest)
	if err != nil {
		log.Fatalf("scoring failed: %v", err)
	}

	out := os.Stdout
	if *output != "" {
		out, err = os.Create(*output)
		if err != nil {
			log.Fatalf("error creating output: %v", err)
		}
		defer out.Close()
	}

	writer := csv.NewWriter(out)
	if err := writer.Write(append(header, "predicted_class")); err != nil {
		log.Fatalf("error writing output: %v", err)
	}
	for i, r := range rows {
		if err := writer.Write(append(r.record, labels[i])); err != nil {
			log.Fatalf("error writing output: %v", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		log.Fatalf("error writing output: %v", err)
	}

	log.Printf("scored %d rows", len(rows))
}
