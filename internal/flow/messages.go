package flow

const (
	labelIncome   = "Добавить доход"
	labelExpense  = "Добавить расход"
	labelReport   = "Получить отчет"
	labelExport   = "Экспорт данных"
	labelInsights = "📑 Дополнительные отчёты"

	msgWelcome    = "Добро пожаловать! Выберите действие:"
	msgMenu       = "Выберите действие:"
	msgHelp       = "Команды:\n/income - добавить доход\n/expense - добавить расход\n/report - отчет за период\n/export - выгрузить файлы за период\n/cancel - отменить текущее действие"
	msgNotAllowed = "У вас нет доступа к этому боту."
	msgCancelled  = "Действие отменено."
	msgNothing    = "Нечего отменять."
	msgStale      = "Эта кнопка устарела. Начните заново из меню."
	msgTryLater   = "❌ Не удалось выполнить операцию. Попробуйте позже."

	msgIncomeCategory  = "Выберите категорию дохода:"
	msgExpenseCategory = "Выберите категорию расхода:"
	msgUnknownCategory = "Такой категории нет. Выберите из списка."
	msgIncomeAmount    = "Вы выбрали категорию: %s. Введите сумму дохода:"
	msgExpenseAmount   = "Вы выбрали категорию: %s. Введите сумму расхода:"
	msgBadAmount       = "Пожалуйста, введите корректную сумму, например 1500.50"
	msgDescription     = "Введите описание:"
	msgEmptyDesc       = "Описание не может быть пустым. Введите описание:"
	msgIncomeSaved     = "✅ Доход %s на сумму %s добавлен."
	msgExpenseSaved    = "✅ Расход %s на сумму %s добавлен."

	msgNoReportData = "Нет доступных данных для анализа."
	msgNoExportData = "Нет доступных данных для экспорта."
	msgNoPeriodData = "ℹ️ Нет данных за выбранный период."
	msgStartYear    = "Выберите начальный год:"
	msgStartMonth   = "Данные за %d. Выберите начальный месяц:"
	msgEndYear      = "Вы выбрали начальный период: %02d/%d. Теперь выберите конечный год:"
	msgEndMonth     = "Вы выбрали начальный период: %02d/%d. Теперь выберите конечный месяц за %d:"
	msgNoYear       = "Данные за выбранный год отсутствуют."
	msgNoMonth      = "Данные за выбранный месяц отсутствуют."
	msgBadRange     = "Конечный период не может быть раньше начального."
	msgReporting    = "Вы выбрали период: %s. Генерация отчета..."
	msgExporting    = "Вы выбрали период: %s. Отправляю файлы..."
	msgMoreReports  = "📋 Выберите дополнительные отчёты для просмотра:"
)
