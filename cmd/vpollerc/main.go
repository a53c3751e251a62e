// Command vpollerc is a thin CLI client for talking to a running proxy
// or worker over its REQ-facing socket (spec.md §10, supplemented from
// original_source/src/vm-pollerc.py and src/vpoller/client.py): it
// builds one JSON request from flags, sends it with the same Lazy
// Pirate client the rest of the system uses, and prints the reply.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/kubev2v/vsphere-proxy/pkg/transport"
	"github.com/kubev2v/vsphere-proxy/pkg/wire"
)

var rootCmd = &cobra.Command{
	Use:   "vpollerc",
	Short: "Send requests to a vSphere proxy or worker",
}

var callCmd = &cobra.Command{
	Use:   "call",
	Short: "Send a single task request and print the reply",
	RunE:  runCall,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Query a proxy's or worker's management status",
	RunE:  runStatus,
}

func init() {
	rootCmd.PersistentFlags().String("endpoint", "", "REQ endpoint to connect to (e.g. tcp://localhost:10123)")
	rootCmd.PersistentFlags().Int("timeout", int(transport.DefaultTimeout/time.Millisecond), "Per-attempt timeout in milliseconds")
	rootCmd.PersistentFlags().Int("attempts", transport.DefaultAttempts, "Number of Lazy Pirate attempts")
	_ = rootCmd.MarkPersistentFlagRequired("endpoint")

	callFlags := callCmd.Flags()
	callFlags.String("method", "", "Task method name, e.g. host.datastore.get")
	callFlags.String("hostname", "", "vSphere Agent hostname registered in the credential store")
	callFlags.String("name", "", "Entity name, e.g. a datastore or VM name")
	callFlags.StringSlice("properties", nil, "Comma-separated list of properties to retrieve")
	callFlags.String("key", "", "Object key, e.g. a guest disk path for vm.disk.get")
	callFlags.String("username", "", "Guest username, for vm.process.get")
	callFlags.String("password", "", "Guest password, for vm.process.get")
	callFlags.String("counter-name", "", "Performance counter name, for perf.* tasks")
	callFlags.String("perf-interval", "", "Historical performance interval name")
	callFlags.Int("max-sample", 0, "Maximum number of performance samples")
	callFlags.String("instance", "", "Performance counter instance")
	callFlags.String("helper", "", "Output formatter helper name, e.g. csv or zabbix")
	_ = callCmd.MarkFlagRequired("method")
	_ = callCmd.MarkFlagRequired("hostname")

	rootCmd.AddCommand(callCmd, statusCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newClient(cmd *cobra.Command) *transport.Client {
	flags := cmd.Flags()
	endpoint, _ := flags.GetString("endpoint")
	timeoutMs, _ := flags.GetInt("timeout")
	attempts, _ := flags.GetInt("attempts")

	client := transport.NewClient(endpoint)
	client.Timeout = time.Duration(timeoutMs) * time.Millisecond
	client.Attempts = attempts
	return client
}

func runCall(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	properties, _ := flags.GetStringSlice("properties")
	maxSample, _ := flags.GetInt("max-sample")

	method, _ := flags.GetString("method")
	hostname, _ := flags.GetString("hostname")
	name, _ := flags.GetString("name")
	key, _ := flags.GetString("key")
	username, _ := flags.GetString("username")
	password, _ := flags.GetString("password")
	counterName, _ := flags.GetString("counter-name")
	perfInterval, _ := flags.GetString("perf-interval")
	instance, _ := flags.GetString("instance")
	helper, _ := flags.GetString("helper")

	req := wire.Request{
		Method:       method,
		Hostname:     hostname,
		Name:         name,
		Properties:   properties,
		Key:          key,
		Username:     username,
		Password:     password,
		CounterName:  counterName,
		PerfInterval: perfInterval,
		MaxSample:    maxSample,
		Instance:     instance,
		Helper:       helper,
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	reply, err := newClient(cmd).Request(payload)
	if err != nil {
		return err
	}

	fmt.Println(string(reply))
	return nil
}

// runStatus hits a process's mgmt endpoint. On top of the client's own
// Lazy Pirate attempts, a short exponential backoff retries the whole
// request a handful of times before giving up, tagging each attempt
// with a correlation id for the operator to grep logs by.
func runStatus(cmd *cobra.Command, args []string) error {
	correlationID := uuid.NewString()
	client := newClient(cmd)

	payload, err := json.Marshal(struct {
		Method string `json:"method"`
	}{Method: "status"})
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 250 * time.Millisecond
	b.MaxInterval = 5 * time.Second

	const maxReconnects = 3
	var reply []byte
	var lastErr error
	for attempt := 1; attempt <= maxReconnects; attempt++ {
		reply, lastErr = client.Request(payload)
		if lastErr == nil {
			break
		}
		fmt.Fprintf(os.Stderr, "[%s] attempt %d/%d: %v\n", correlationID, attempt, maxReconnects, lastErr)
		if attempt == maxReconnects {
			break
		}
		time.Sleep(b.NextBackOff())
	}
	if lastErr != nil {
		color.Red("[%s] %v", correlationID, lastErr)
		os.Exit(1)
	}

	var parsed wire.Reply
	if err := json.Unmarshal(reply, &parsed); err != nil {
		fmt.Println(string(reply))
		return nil
	}

	if parsed.Success == 0 {
		color.Green("%s", parsed.Msg)
	} else {
		color.Red("%s", parsed.Msg)
	}
	for _, record := range parsed.Result {
		for k, v := range record {
			fmt.Printf("  %s: %v\n", k, v)
		}
	}
	return nil
}
