/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package quickfixadapter

import (
	"os"

	"github.com/pkg/errors"
	"github.com/quickfixgo/quickfix"

	"fixreplay/transport"
)

// readSettings loads a quickfix.Settings file and overlays the session's
// CompIDs and any adapter Properties (SocketConnectHost, SocketConnectPort,
// and so on) from cfg, so one settings file template can serve every
// scenario's SessionConfig rather than needing one file per scenario.
func readSettings(path string, cfg transport.SessionConfig) (*quickfix.Settings, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	settings, err := quickfix.ParseSettings(f)
	if err != nil {
		return nil, errors.Wrap(err, "parse settings")
	}

	global := settings.GlobalSettings()
	global.Set("SenderCompID", cfg.Entry.SenderCompID)
	global.Set("TargetCompID", cfg.Entry.TargetCompID)
	for k, v := range cfg.Properties {
		global.Set(k, v)
	}
	return settings, nil
}
