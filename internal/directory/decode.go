package directory

import (
	"github.com/bigkaa/adroles/internal/domain/model"
)

// Значения userAccountControl Active Directory.
const (
	// AccountEnabled — включённая учётная запись
	AccountEnabled = 512
	// AccountDisabled — отключённая учётная запись
	AccountDisabled = 514
	// AccountEnabledNoExpire — включённая, пароль не истекает
	AccountEnabledNoExpire = 66048
	// AccountDisabledNoExpire — отключённая, пароль не истекает
	AccountDisabledNoExpire = 66050
)

// MaxDescriptionLength — лимит длины описания группы в локальном хранилище.
const MaxDescriptionLength = 255

// DecodeEnabled декодирует признак «учётная запись включена»
// из userAccountControl.
func DecodeEnabled(control int64) bool {
	return control == AccountEnabled || control == AccountEnabledNoExpire
}

// DecodePasswordExpires декодирует признак «срок действия пароля ограничен»
// из userAccountControl.
func DecodePasswordExpires(control int64) bool {
	return control != AccountEnabledNoExpire && control != AccountDisabledNoExpire
}

// DecodeGroupType декодирует область действия и тип группы из атрибута
// groupType. Неизвестные значения трактуются как (local, security).
func DecodeGroupType(raw int64) (model.GroupArea, model.GroupKind) {
	switch raw {
	case 2:
		return model.GroupAreaGlobal, model.GroupKindDistribution
	case 4:
		return model.GroupAreaLocal, model.GroupKindDistribution
	case 8:
		return model.GroupAreaUniversal, model.GroupKindDistribution
	case -2147483646:
		return model.GroupAreaGlobal, model.GroupKindSecurity
	case -2147483644:
		return model.GroupAreaLocal, model.GroupKindSecurity
	case -2147483640:
		return model.GroupAreaUniversal, model.GroupKindSecurity
	default:
		return model.GroupAreaLocal, model.GroupKindSecurity
	}
}

// TruncateDescription усекает описание, превышающее MaxDescriptionLength.
// Граница усечения — индекс 254: поведение унаследовано от исходной
// системы и закреплено тестами.
func TruncateDescription(s string) string {
	runes := []rune(s)
	if len(runes) > MaxDescriptionLength {
		return string(runes[:MaxDescriptionLength-1])
	}
	return s
}
