package anvil

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/trebuchet-org/facet-cli/internal/domain"
	"github.com/trebuchet-org/facet-cli/internal/usecase"
)

const (
	DefaultAnvilPort = "8545"

	readyTimeout  = 15 * time.Second
	readyInterval = 200 * time.Millisecond
	stopTimeout   = 5 * time.Second
)

// Manager runs local anvil processes, usually forks of a live network used
// to rehearse migrations.
type Manager struct {
	binary string
	log    *slog.Logger
}

// NewManager creates a new anvil manager
func NewManager(log *slog.Logger) *Manager {
	return &Manager{binary: "anvil", log: log.With("component", "anvil")}
}

// buildAnvilArgs returns the command line for an instance
func buildAnvilArgs(instance *domain.AnvilInstance) []string {
	args := []string{"--port", instance.Port, "--host", "127.0.0.1"}
	if instance.ChainID != "" {
		args = append(args, "--chain-id", instance.ChainID)
	}
	if instance.ForkURL != "" {
		args = append(args, "--fork-url", instance.ForkURL)
	}
	return args
}

// setFilePaths fills in defaults for unset instance fields
func (m *Manager) setFilePaths(instance *domain.AnvilInstance) {
	if instance.Name == "" {
		instance.Name = "anvil"
	}
	if instance.Port == "" {
		instance.Port = DefaultAnvilPort
	}
	if instance.PidFile == "" {
		instance.PidFile = filepath.Join(os.TempDir(), fmt.Sprintf("facet-%s.pid", instance.Name))
	}
	if instance.LogFile == "" {
		instance.LogFile = filepath.Join(os.TempDir(), fmt.Sprintf("facet-%s.log", instance.Name))
	}
}

// Start launches anvil and waits until its RPC answers.
func (m *Manager) Start(ctx context.Context, instance *domain.AnvilInstance) error {
	m.setFilePaths(instance)
	if m.isRunning(instance) {
		return fmt.Errorf("anvil '%s' is already running (PID file exists at %s)", instance.Name, instance.PidFile)
	}

	logFile, err := os.Create(instance.LogFile)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}
	defer logFile.Close()

	cmd := exec.Command(m.binary, buildAnvilArgs(instance)...)
	cmd.Stdout = logFile
	cmd.Stderr = logFile
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start anvil: %w", err)
	}
	if err := writePidFile(instance.PidFile, cmd.Process.Pid); err != nil {
		_ = cmd.Process.Kill()
		return fmt.Errorf("failed to write PID file: %w", err)
	}
	m.log.Debug("started anvil", "name", instance.Name, "pid", cmd.Process.Pid, "args", strings.Join(buildAnvilArgs(instance), " "))

	if err := m.waitReady(ctx, instance); err != nil {
		_ = m.Stop(context.WithoutCancel(ctx), instance)
		return fmt.Errorf("anvil did not become ready (see %s): %w", instance.LogFile, err)
	}
	return nil
}

func (m *Manager) waitReady(ctx context.Context, instance *domain.AnvilInstance) error {
	ctx, cancel := context.WithTimeout(ctx, readyTimeout)
	defer cancel()
	ticker := time.NewTicker(readyInterval)
	defer ticker.Stop()

	for {
		var block hexutil.Uint64
		err := m.call(ctx, instance, &block, "eth_blockNumber")
		if err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return errors.Join(ctx.Err(), err)
		case <-ticker.C:
		}
	}
}

// Stop terminates the instance and removes its PID file. Stopping an
// instance that is not running is not an error.
func (m *Manager) Stop(_ context.Context, instance *domain.AnvilInstance) error {
	m.setFilePaths(instance)
	pid, err := readPidFile(instance.PidFile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read PID file: %w", err)
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("failed to find process: %w", err)
	}
	if err := process.Signal(syscall.SIGTERM); err != nil {
		_ = process.Kill()
	}

	done := make(chan struct{})
	go func() {
		_, _ = process.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(stopTimeout):
		_ = process.Kill()
		<-done
	}

	if err := os.Remove(instance.PidFile); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove PID file: %w", err)
	}
	m.log.Debug("stopped anvil", "name", instance.Name, "pid", pid)
	return nil
}

// SetBalance overwrites an account balance on the instance.
func (m *Manager) SetBalance(ctx context.Context, instance *domain.AnvilInstance, account common.Address, balance *big.Int) error {
	if err := m.call(ctx, instance, nil, "anvil_setBalance", account, (*hexutil.Big)(balance)); err != nil {
		return fmt.Errorf("failed to set balance of %s: %w", account.Hex(), err)
	}
	return nil
}

// Impersonate unlocks an account so unsigned transactions from it are
// accepted.
func (m *Manager) Impersonate(ctx context.Context, instance *domain.AnvilInstance, account common.Address) error {
	if err := m.call(ctx, instance, nil, "anvil_impersonateAccount", account); err != nil {
		return fmt.Errorf("failed to impersonate %s: %w", account.Hex(), err)
	}
	return nil
}

func (m *Manager) call(ctx context.Context, instance *domain.AnvilInstance, result any, method string, args ...any) error {
	client, err := rpc.DialContext(ctx, instance.RPCURL())
	if err != nil {
		return err
	}
	defer client.Close()
	return client.CallContext(ctx, result, method, args...)
}

func (m *Manager) isRunning(instance *domain.AnvilInstance) bool {
	pid, err := readPidFile(instance.PidFile)
	if err != nil {
		return false
	}
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return process.Signal(syscall.Signal(0)) == nil
}

func readPidFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("invalid PID in file: %s", string(data))
	}
	return pid, nil
}

func writePidFile(path string, pid int) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(strconv.Itoa(pid)), 0644)
}

var _ usecase.ForkManager = (*Manager)(nil)
