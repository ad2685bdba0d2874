package conflict

import (
	"github.com/ckwahalathanthri/epic-green-erp-sub006/internal/domain/apply"
)

// Detect классифицирует расхождение между клиентской мутацией и текущим
// авторитетным состоянием. Детерминированная функция без скрытого состояния:
// результат целиком выводится из операции, базовой версии клиента и слепка
// сервера, поэтому любое решение воспроизводимо по сохраненным данным.
//
// Приоритет классификации: UPDATE_DELETE > UPDATE_UPDATE > VERSION_MISMATCH.
//
// base — версия записи, от которой клиент делал локальную мутацию
// (0 = клиент запись не видел). state == nil — сервер запись никогда не держал.
func Detect(op apply.Operation, base int64, state *apply.EntityState) (Type, bool) {
	if state == nil {
		if op == apply.OpInsert {
			return "", false
		}
		// клиент ссылается на запись, которой у сервера никогда не было
		return TypeVersionMismatch, true
	}

	if state.Deleted {
		if op == apply.OpInsert {
			// воссоздание после удаления, конфликтом не считается
			return "", false
		}
		return TypeUpdateDelete, true
	}

	if op == apply.OpInsert {
		// запись уже создана другим устройством
		return TypeUpdateUpdate, true
	}

	if state.Version > base {
		return TypeUpdateUpdate, true
	}

	if base > state.Version {
		// версии монотонны, base больше текущей — сервер такой версии
		// никогда не держал
		return TypeVersionMismatch, true
	}

	return "", false
}
