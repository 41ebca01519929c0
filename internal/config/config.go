// Package config предоставляет конфигурацию hyper-клавиши с сохранением в файл.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"sync"
	"time"

	"github.com/tidwall/gjson"

	"hyperkey/internal/hyper"
	"hyperkey/internal/keys"
)

const (
	maxConfigFileBytes int64 = 1 << 20
	maxRenameRetry           = 10
	renameRetryBaseDelay     = 10 * time.Millisecond
)

// ErrInvalidConfig оборачивает все ошибки валидации.
var ErrInvalidConfig = errors.New("неверная конфигурация")

// Snapshot - полная запись конфигурации. Копируется по значению.
type Snapshot struct {
	Mode              hyper.Mode `json:"mode"`
	HyperKeyCode      keys.Code  `json:"hyperKeyCode"`
	UseAlternateChord bool       `json:"useAlternateChord"`
	SuspendHotkey     string     `json:"suspendHotkey,omitempty"`
	Notifications     bool       `json:"notifications"`
}

// Default возвращает конфигурацию первого запуска.
func Default() Snapshot {
	return Snapshot{
		Mode:          hyper.Hybrid,
		HyperKeyCode:  keys.Capital,
		Notifications: true,
	}
}

// Validate проверяет инварианты записи.
func (s Snapshot) Validate() error {
	if !s.Mode.Valid() {
		return fmt.Errorf("%w: неизвестный режим %d", ErrInvalidConfig, int(s.Mode))
	}
	if s.HyperKeyCode == 0 || s.HyperKeyCode > 0xFF {
		return fmt.Errorf("%w: код клавиши %#x вне диапазона 0x01-0xFF", ErrInvalidConfig, uint16(s.HyperKeyCode))
	}
	// Модификатор в роли hyper-клавиши столкнулся бы с собственным аккордом.
	if keys.IsModifier(s.HyperKeyCode) {
		return fmt.Errorf("%w: %s - модификатор и не может быть hyper-клавишей", ErrInvalidConfig, s.HyperKeyCode)
	}
	if s.HyperKeyCode == keys.Escape {
		return fmt.Errorf("%w: Escape сбрасывает зависший аккорд и не может быть hyper-клавишей", ErrInvalidConfig)
	}
	if s.SuspendHotkey != "" {
		b, err := keys.ParseBinding(s.SuspendHotkey)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
		if b.Key == s.HyperKeyCode {
			return fmt.Errorf("%w: сочетание приостановки не может использовать hyper-клавишу", ErrInvalidConfig)
		}
	}
	return nil
}

// Engine возвращает часть снимка, которую читает автомат.
func (s Snapshot) Engine() hyper.Config {
	return hyper.Config{
		Mode:              s.Mode,
		HyperKey:          s.HyperKeyCode,
		UseAlternateChord: s.UseAlternateChord,
	}
}

// legacyData - формат первых версий (числовой режим, другие имена полей).
type legacyData struct {
	HyperMode hyper.Mode `json:"hyperMode"`
	TheKey    keys.Code  `json:"theKey"`
	UseMehKey bool       `json:"useMehKey"`
}

// Decode разбирает и валидирует запись. Отсутствующие необязательные поля
// получают значения по умолчанию, а не прежние значения: запись заменяется целиком.
func Decode(data []byte) (Snapshot, error) {
	if !gjson.ValidBytes(data) || !gjson.ParseBytes(data).IsObject() {
		return Snapshot{}, fmt.Errorf("%w: ожидается JSON-объект", ErrInvalidConfig)
	}

	s := Default()
	if gjson.GetBytes(data, "theKey").Exists() {
		var old legacyData
		if err := json.Unmarshal(data, &old); err != nil {
			return Snapshot{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
		s.Mode = old.HyperMode
		s.HyperKeyCode = old.TheKey
		s.UseAlternateChord = old.UseMehKey
	} else if err := json.Unmarshal(data, &s); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	if err := s.Validate(); err != nil {
		return Snapshot{}, err
	}
	return s, nil
}

// Encode сериализует запись так же, как она хранится в файле.
func Encode(s Snapshot) ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}

// DefaultPath возвращает путь к файлу конфигурации:
// $HYPERKEY_CONFIG или <home>/.config/hyper-key/config.json.
func DefaultPath() string {
	if p := os.Getenv("HYPERKEY_CONFIG"); p != "" {
		return p
	}
	return filepath.Join(Dir(), "config.json")
}

// Dir возвращает папку конфигурации (USERPROFILE, затем HOME).
func Dir() string {
	home := os.Getenv("USERPROFILE")
	if home == "" {
		home = os.Getenv("HOME")
	}
	return filepath.Join(home, ".config", "hyper-key")
}

// Store хранит текущую конфигурацию. Чтения копируют запись под коротким
// RLock; запись на диск выполняется вне мьютекса.
type Store struct {
	mu       sync.RWMutex
	current  Snapshot
	loaded   bool
	path     string
	onChange []func(Snapshot)

	// writeMu упорядочивает Update/Reload между собой.
	writeMu sync.Mutex
}

// NewStore создаёт хранилище для файла path. До Load снимок недоступен.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path возвращает путь к файлу конфигурации.
func (s *Store) Path() string {
	return s.path
}

// Load читает конфигурацию при старте. Если файла нет, создаёт его с
// настройками по умолчанию. Если файл повреждён, применяет настройки по
// умолчанию и возвращает ошибку (файл не перезаписывается).
func (s *Store) Load() error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	snap, err := readFile(s.path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		snap = Default()
		if werr := s.persist(snap); werr != nil {
			log.Printf("Не удалось создать файл конфигурации: %v", werr)
		}
		err = nil
	case err != nil:
		snap = Default()
	}

	s.swap(snap)
	log.Printf("Конфигурация: %s, клавиша %s, альтернативный аккорд: %v",
		snap.Mode, snap.HyperKeyCode, snap.UseAlternateChord)
	return err
}

// Reload перечитывает файл. При ошибке текущая конфигурация не меняется.
func (s *Store) Reload() error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	snap, err := readFile(s.path)
	if err != nil {
		return err
	}
	s.swap(snap)
	return nil
}

// Update валидирует запись, сохраняет её на диск и только затем подменяет
// текущую. При ошибке текущая конфигурация не меняется.
func (s *Store) Update(next Snapshot) error {
	if err := next.Validate(); err != nil {
		return err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.persist(next); err != nil {
		return err
	}
	s.swap(next)
	return nil
}

// ToggleNotifications переключает уведомления и сохраняет результат.
func (s *Store) ToggleNotifications() (bool, error) {
	next := s.Current()
	next.Notifications = !next.Notifications
	if err := s.Update(next); err != nil {
		return !next.Notifications, err
	}
	return next.Notifications, nil
}

// Snapshot возвращает копию текущей записи; ok=false, если конфигурация
// ещё не загружена.
func (s *Store) Snapshot() (Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current, s.loaded
}

// Current возвращает копию текущей записи (Default до загрузки).
func (s *Store) Current() Snapshot {
	snap, ok := s.Snapshot()
	if !ok {
		return Default()
	}
	return snap
}

// OnChange добавляет обработчик изменения конфигурации. Обработчики
// вызываются вне мьютекса в порядке регистрации.
func (s *Store) OnChange(fn func(Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = append(s.onChange, fn)
}

func (s *Store) swap(next Snapshot) {
	s.mu.Lock()
	changed := !s.loaded || s.current != next
	s.current = next
	s.loaded = true
	callbacks := slices.Clone(s.onChange)
	s.mu.Unlock()

	if !changed {
		return
	}
	for _, fn := range callbacks {
		fn(next)
	}
}

func (s *Store) persist(snap Snapshot) error {
	data, err := Encode(snap)
	if err != nil {
		return fmt.Errorf("сохранение конфигурации: %w", err)
	}
	return atomicWrite(s.path, data)
}

func readFile(path string) (Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return Snapshot{}, err
	}
	defer f.Close()

	raw, err := io.ReadAll(io.LimitReader(f, maxConfigFileBytes+1))
	if err != nil {
		return Snapshot{}, fmt.Errorf("чтение %s: %w", path, err)
	}
	if int64(len(raw)) > maxConfigFileBytes {
		return Snapshot{}, fmt.Errorf("%w: файл больше %d байт", ErrInvalidConfig, maxConfigFileBytes)
	}
	snap, err := Decode(raw)
	if err != nil {
		return Snapshot{}, fmt.Errorf("%s: %w", path, err)
	}
	return snap, nil
}

// atomicWrite пишет во временный файл и переименовывает его поверх целевого.
func atomicWrite(path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	if err = os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("сохранение конфигурации: mkdir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".config.json.tmp.*")
	if err != nil {
		return fmt.Errorf("сохранение конфигурации: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if tmp != nil {
			tmp.Close()
		}
		if err != nil {
			os.Remove(tmpPath)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return fmt.Errorf("сохранение конфигурации: write: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("сохранение конфигурации: sync: %w", err)
	}
	err = tmp.Close()
	tmp = nil
	if err != nil {
		return fmt.Errorf("сохранение конфигурации: close: %w", err)
	}

	if err = renameWithRetry(tmpPath, path); err != nil {
		return fmt.Errorf("сохранение конфигурации: rename: %w", err)
	}
	return nil
}

// renameWithRetry повторяет rename на Windows: антивирус и индексатор
// ненадолго держат файл открытым.
func renameWithRetry(src, dst string) error {
	var lastErr error
	for attempt := range maxRenameRetry {
		err := os.Rename(src, dst)
		if err == nil {
			return nil
		}
		lastErr = err
		if runtime.GOOS != "windows" {
			return err
		}
		time.Sleep(time.Duration(attempt+1) * renameRetryBaseDelay)
	}
	return lastErr
}
