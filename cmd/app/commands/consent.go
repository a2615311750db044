package commands

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"
)

// RunConsentStatus prints the consent record in human-readable form.
func RunConsentStatus(ctx context.Context, io IOTuple) error {
	container := newContainer()
	defer closeContainer(container, container.Logger())

	record, err := container.Ledger().Status(ctx)
	if err != nil {
		return fmt.Errorf("failed to read consent status: %w", err)
	}

	fmt.Fprintf(io.Writer, "State:          %s\n", record.State)
	fmt.Fprintf(io.Writer, "Valid:          %t\n", record.IsValid())
	fmt.Fprintf(io.Writer, "Needs renewal:  %t\n", record.NeedsRenewal())
	if !record.GivenAt.IsZero() {
		fmt.Fprintf(io.Writer, "Given at:       %s\n", record.GivenAt.Format("2006-01-02 15:04:05 MST"))
		fmt.Fprintf(io.Writer, "Policy version: %s\n", record.PolicyVersion)
	}
	fmt.Fprintf(io.Writer, "Grants:         data_processing=%t analytics=%t marketing=%t third_party_sharing=%t\n",
		record.Grants.DataProcessing,
		record.Grants.Analytics,
		record.Grants.Marketing,
		record.Grants.ThirdPartySharing,
	)
	return nil
}

// RunExportData writes the full data export as indented JSON to the output
// path, or to stdout when the path is empty.
func RunExportData(ctx context.Context, outputPath string, io IOTuple) error {
	container := newContainer()
	defer closeContainer(container, container.Logger())

	export, err := container.Ledger().ExportAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to export data: %w", err)
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode export: %w", err)
	}

	if outputPath == "" {
		fmt.Fprintln(io.Writer, string(data))
		return nil
	}
	if err := os.WriteFile(outputPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write export file: %w", err)
	}
	fmt.Fprintf(io.Writer, "Export %s written to %s\n", export.ExportID, outputPath)
	return nil
}

// RunEraseAll deletes every stored value and the encryption key. Asks for
// confirmation unless the caller already confirmed with --yes.
func RunEraseAll(ctx context.Context, confirmed bool, io IOTuple) error {
	container := newContainer()
	defer closeContainer(container, container.Logger())

	if !confirmed {
		fmt.Fprint(io.Writer, "This permanently deletes all stored data and key material. Type 'yes' to continue: ")
		answer, err := bufio.NewReader(io.Reader).ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read confirmation: %w", err)
		}
		if strings.TrimSpace(answer) != "yes" {
			fmt.Fprintln(io.Writer, "Aborted")
			return nil
		}
	}

	if err := container.EraseInstallation(ctx); err != nil {
		return fmt.Errorf("failed to erase installation: %w", err)
	}
	fmt.Fprintln(io.Writer, "All stored data and key material erased")
	return nil
}

// RunPruneAccessLog removes access log entries older than the given number
// of days; days <= 0 uses the configured retention.
func RunPruneAccessLog(ctx context.Context, days int, io IOTuple) error {
	container := newContainer()
	defer closeContainer(container, container.Logger())

	retention := container.Config().AccessLogRetention
	if days > 0 {
		retention = time.Duration(days) * 24 * time.Hour
	}

	removed, err := container.Ledger().PruneAccessLog(ctx, retention)
	if err != nil {
		return fmt.Errorf("failed to prune access log: %w", err)
	}
	fmt.Fprintf(io.Writer, "Removed %d access log entries older than %s\n", removed, retention)
	return nil
}
