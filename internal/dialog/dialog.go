// Package dialog предоставляет нативные диалоги приложения.
package dialog

import (
	"fmt"

	"github.com/ncruces/zenity"

	"hyperkey/internal/i18n"
	"hyperkey/internal/keys"
)

// ErrCanceled возвращается, если пользователь закрыл диалог.
var ErrCanceled = zenity.ErrCanceled

// SelectHyperKey открывает список клавиш, которые можно сделать hyper-клавишей.
// Возвращает выбранный код или ошибку если пользователь отменил.
func SelectHyperKey(current keys.Code) (keys.Code, error) {
	options, def := keyOptions(current)

	selected, err := zenity.List(
		i18n.T("dialog_key_prompt"),
		options,
		zenity.Title(i18n.T("dialog_key_title")),
		zenity.DefaultItems(def),
	)
	if err != nil {
		return current, err // Пользователь отменил
	}
	return resolve(selected)
}

// keyOptions возвращает подписи для списка и подпись текущей клавиши.
func keyOptions(current keys.Code) ([]string, string) {
	candidates := keys.Candidates()
	options := make([]string, 0, len(candidates)+1)
	found := false
	for _, k := range candidates {
		options = append(options, k.Name)
		if k.Code == current {
			found = true
		}
	}
	// Текущая клавиша может быть задана кодом, которого нет в списке
	if !found && current != 0 {
		options = append(options, keys.Name(current))
	}
	return options, keys.Name(current)
}

func resolve(selected string) (keys.Code, error) {
	code, err := keys.Parse(selected)
	if err != nil {
		return 0, fmt.Errorf("выбрана неизвестная клавиша: %w", err)
	}
	return code, nil
}

// ShowInfo показывает информационное сообщение.
func ShowInfo(title, message string) {
	zenity.Info(message, zenity.Title(title))
}

// ShowError показывает сообщение об ошибке.
func ShowError(title, message string) {
	zenity.Error(message, zenity.Title(title))
}
