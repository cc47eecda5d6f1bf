package main

import (
	"encoding/json"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/HimanshuMohanty-Git24/KhataGPT/internal/ingestion"
	"github.com/HimanshuMohanty-Git24/KhataGPT/internal/storage/models"
	appLogger "github.com/HimanshuMohanty-Git24/KhataGPT/pkg/logger"
)

var ingestDocType string

var ingestCmd = &cobra.Command{
	Use:   "ingest [file...]",
	Short: "Ingest files into the document store",
	Long: `Runs the ingestion pipeline locally and prints each stored document.

Several image files given together are combined into one PDF document.
Without arguments every allowed file in the configured upload directory is
ingested as its own document.`,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestDocType, "doc-type", "", "document type to store instead of classifying")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.Close()

	var uploads []ingestion.Upload
	if len(args) > 0 {
		files, err := readUploadFiles(args)
		if err != nil {
			return err
		}
		uploads = append(uploads, ingestion.Upload{Files: files, DocType: models.DocType(ingestDocType)})
	} else {
		paths, err := uploadDirFiles(a.cfg.Upload.Dir, a.cfg.Upload.AllowedExtensions)
		if err != nil {
			return err
		}
		if len(paths) == 0 {
			cmd.Printf("No files to ingest in %s\n", a.cfg.Upload.Dir)
			return nil
		}
		for _, p := range paths {
			files, err := readUploadFiles([]string{p})
			if err != nil {
				return err
			}
			uploads = append(uploads, ingestion.Upload{Files: files, DocType: models.DocType(ingestDocType)})
		}
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")

	for _, u := range uploads {
		doc, err := a.pipeline.Ingest(cmd.Context(), u)
		if err != nil {
			appLogger.Error("Ingestion failed", zap.String("file", u.Files[0].Name), zap.Error(err))
			return fmt.Errorf("failed to ingest %s: %w", u.Files[0].Name, err)
		}
		doc.EncodedContent = ""
		if err := enc.Encode(doc); err != nil {
			return err
		}
	}
	return nil
}

func readUploadFiles(paths []string) ([]ingestion.UploadFile, error) {
	files := make([]ingestion.UploadFile, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", p, err)
		}
		files = append(files, ingestion.UploadFile{
			Name:        filepath.Base(p),
			ContentType: mime.TypeByExtension(strings.ToLower(filepath.Ext(p))),
			Data:        data,
		})
	}
	return files, nil
}

func uploadDirFiles(dir string, allowed []string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload directory: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(e.Name()), "."))
		if slices.Contains(allowed, ext) {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	return paths, nil
}
