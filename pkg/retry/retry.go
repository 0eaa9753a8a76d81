package retry

import (
	"github.com/labstack/gommon/log"
	"time"
)

const (
	maxRetries        = 2
	retryMultiplier   = 2
	retryInitialDelay = time.Millisecond * 200
	// При maxRetries = 2, retryMultiplier = 2, retryInitialDelay = 200ms:
	// 0-ая попытка: 0ms
	// 1-ая попытка: 200ms
	// 2-ая попытка: 400ms, потом завершение.
	// Операция выполняется в цепочке обработки запроса, поэтому попыток немного
)

// Retry выполняет операцию с экспоненциальной задержкой между попытками.
// Возвращает nil, если операция успешна, или последнюю ошибку, если все попытки завершились неудачей.
func Retry(operation func() error) error {
	retryCounter := 0
	for {
		err := operation()
		if err == nil {
			return nil
		}
		if retryCounter >= maxRetries {
			return err
		}
		log.Errorf("error during retry %d: %v", retryCounter, err)
		time.Sleep(retryInitialDelay * time.Duration(retryCounter*retryMultiplier))
		retryCounter++
	}
}
