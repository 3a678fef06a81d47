package sqlkit

import "errors"

// ErrNoEffect is returned by ExecAffected and ExecID when an update reports
// zero affected rows. Use ExecIDOr (or plain Exec) when zero is acceptable.
var ErrNoEffect = errors.New("sqlkit: update affected no rows")

// ErrNoKey is returned by ExecID and ExecIDOr when the update succeeded but
// the driver reported no generated key. On engines without LastInsertId
// support, prefer RETURNING with Get.
var ErrNoKey = errors.New("sqlkit: no generated key")
