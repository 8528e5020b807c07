// Package cmd implements the command-line interface for zoomdrive.
//
// This package provides the following commands:
//   - sync: Download Zoom cloud recordings and upload them to Google Drive
//   - export: Write the recording catalog to a CSV file
//   - download: Stage recordings locally without uploading
//   - version: Display version information
//
// The sync command is the default command when no subcommand is specified.
package cmd
